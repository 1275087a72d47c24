// Copyright (c) 2025 nsctl contributors
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package httperrors explains failed controller requests to the user.
// Errors are classified from their types (transport errors inside
// *url.Error, controller statuses in *backend.StatusError), and the hint
// depends on whether the failing call was the login or a later request.
package httperrors

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"

	"nsctl/cli/internal/backend"

	"github.com/pterm/pterm"
)

// Cause is the reason a controller request failed.
type Cause int

const (
	// Unknown is anything that did not come from the transport or a controller status.
	Unknown Cause = iota
	Timeout
	DNS
	Refused
	TLS
	Unreachable
	Unauthorized
	Forbidden
	NotFound
	ServerFault
	Rejected
)

var causeNames = map[Cause]string{
	Unknown:      "unknown",
	Timeout:      "timeout",
	DNS:          "dns",
	Refused:      "refused",
	TLS:          "tls",
	Unreachable:  "unreachable",
	Unauthorized: "unauthorized",
	Forbidden:    "forbidden",
	NotFound:     "not_found",
	ServerFault:  "server_fault",
	Rejected:     "rejected",
}

func (c Cause) String() string { return causeNames[c] }

// Classify finds the cause of err. Controller statuses win over transport
// errors since a status means the request got through.
func Classify(err error) Cause {
	if err == nil {
		return Unknown
	}
	var se *backend.StatusError
	if errors.As(err, &se) {
		return fromStatus(se.Status)
	}

	var uerr *url.Error
	if !errors.As(err, &uerr) {
		if errors.Is(err, context.DeadlineExceeded) {
			return Timeout
		}
		return Unknown
	}
	return fromTransport(uerr.Err)
}

func fromStatus(status int) Cause {
	switch {
	case status == http.StatusUnauthorized:
		return Unauthorized
	case status == http.StatusForbidden:
		return Forbidden
	case status == http.StatusNotFound:
		return NotFound
	case status >= 500:
		return ServerFault
	default:
		return Rejected
	}
}

func fromTransport(err error) Cause {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return Timeout
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return DNS
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return Refused
	}
	var (
		verifyErr   *tls.CertificateVerificationError
		recordErr   tls.RecordHeaderError
		authority   x509.UnknownAuthorityError
		hostname    x509.HostnameError
		invalidCert x509.CertificateInvalidError
	)
	if errors.As(err, &verifyErr) || errors.As(err, &recordErr) ||
		errors.As(err, &authority) || errors.As(err, &hostname) || errors.As(err, &invalidCert) {
		return TLS
	}
	return Unreachable
}

// atLogin reports whether err came from the login call. The URL of a
// transport error or the operation of a status error tells.
func atLogin(err error) bool {
	var se *backend.StatusError
	if errors.As(err, &se) {
		return se.Op == "login"
	}
	var uerr *url.Error
	if errors.As(err, &uerr) {
		if u, perr := url.Parse(uerr.URL); perr == nil {
			return strings.HasSuffix(u.Path, backend.DefaultEndpoints().Login)
		}
	}
	return false
}

// Hint is the explanation shown for a failed request.
type Hint struct {
	Cause Cause
	Title string
	Steps []string
}

// Explain builds the hint for err. action reads as "while <action>" and
// host names the controller. ok is false for errors that are neither
// transport failures nor controller statuses.
func Explain(err error, action, host string) (h Hint, ok bool) {
	cause := Classify(err)
	if cause == Unknown {
		return Hint{}, false
	}
	login := atLogin(err)
	h.Cause = cause

	switch cause {
	case Timeout:
		h.Title = fmt.Sprintf("%s did not answer in time while %s", host, action)
		h.Steps = []string{
			"Raise the limit with NSCTL_TIMEOUT or 'timeout' in config.yaml",
			"Check that the controller web service is up",
		}
	case DNS:
		h.Title = fmt.Sprintf("Cannot resolve %s while %s", host, action)
		h.Steps = []string{
			"Check the spelling of the controller address",
			"Run 'nsctl login --server <url>' to change it",
		}
	case Refused:
		h.Title = fmt.Sprintf("%s refused the connection while %s", host, action)
		if login {
			h.Steps = []string{
				"Check host and port of the controller address",
				"Run 'nsctl login --server <url>' to change it",
			}
		} else {
			h.Steps = []string{
				"The controller accepted this session before; it may be restarting",
				"On the controller host: journalctl -u nethsecurity-controller",
			}
		}
	case TLS:
		h.Title = fmt.Sprintf("The certificate of %s was not accepted while %s", host, action)
		h.Steps = []string{
			"Controllers with a self-signed certificate need --insecure or 'insecure: true' in config.yaml",
			"Check the system clock",
		}
	case Unreachable:
		h.Title = fmt.Sprintf("Cannot reach %s while %s", host, action)
		h.Steps = []string{"Check your network connection and proxy settings"}
	case Unauthorized:
		h.Title = fmt.Sprintf("%s refused the credentials while %s", host, action)
		if login {
			h.Steps = []string{"Check username and password"}
		} else {
			h.Steps = []string{"Run 'nsctl login' to start a new session"}
		}
	case Forbidden:
		h.Title = fmt.Sprintf("Your account may not do this (%s)", action)
		h.Steps = []string{"Ask an administrator of the controller"}
	case NotFound:
		if login {
			h.Title = fmt.Sprintf("%s has no login endpoint", host)
			h.Steps = []string{"The address probably misses the API path, e.g. https://" + host + "/api"}
		} else {
			h.Title = fmt.Sprintf("Nothing found while %s", action)
			h.Steps = []string{"Check the identifier with 'nsctl units' or 'nsctl accounts'"}
		}
	case ServerFault:
		h.Title = fmt.Sprintf("%s failed internally while %s", host, action)
		h.Steps = []string{
			"Check the controller logs: journalctl -u nethsecurity-controller",
			"Try again in a few minutes",
		}
	case Rejected:
		h.Title = fmt.Sprintf("%s rejected the request while %s", host, action)
		var se *backend.StatusError
		if errors.As(err, &se) && se.Message != "" {
			h.Steps = []string{"Controller says: " + se.Message}
		}
	}
	return h, true
}

// Report prints the hint for err, if there is one, and tells whether it did.
func Report(err error, action, host string) bool {
	h, ok := Explain(err, action, host)
	if !ok {
		return false
	}
	pterm.Warning.Println(h.Title)
	if len(h.Steps) > 0 {
		items := make([]pterm.BulletListItem, 0, len(h.Steps))
		for _, s := range h.Steps {
			items = append(items, pterm.BulletListItem{Level: 0, Text: s})
		}
		_ = pterm.DefaultBulletList.WithItems(items).Render()
	}
	return true
}

// ExtractHostFromURL extracts the hostname from a URL for error messages.
func ExtractHostFromURL(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil || u.Host == "" {
		return "server"
	}
	return u.Host
}

// IsNetworkError reports whether err came from the transport (dial, DNS,
// TLS, timeout) rather than from a controller response.
func IsNetworkError(err error) bool {
	var uerr *url.Error
	return errors.As(err, &uerr)
}
