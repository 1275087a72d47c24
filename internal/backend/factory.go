// Copyright (c) 2025 nsctl contributors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

// New creates a backend API implementation for the controller at baseURL.
// Returns HTTP client (real controller).
func New(baseURL string, opts Options) API {
	return newHTTP(baseURL, opts)
}
