// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package httpapi exposes the auth core over HTTP.
//
// Every response is JSON. Failures carry {"success": false, "message": ...}
// with a status derived from [auth.KindOf]:
//
//	bad_request  -> 400
//	unauthorized -> 401
//	not_found    -> 404
//	conflict     -> 409
//	internal     -> 500 ("server error")
//
// Internal failures are logged with their oops context and never leak
// details to the client.
package httpapi
