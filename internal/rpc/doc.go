// Package rpc is a small tRPC-compatible procedure router.
//
// Procedures are registered by dotted path and served at
// <endpoint>/<path>: queries by GET with a JSON ?input=, mutations by
// POST with a JSON body. Responses use the tRPC envelope:
//
//	{"result":{"data":...}}
//	{"error":{"message":"...","code":-32001,"data":{"code":"UNAUTHORIZED","httpStatus":401,"path":"..."}}}
//
// Procedures built with Authed() fail with UNAUTHORIZED before their
// input is decoded when the call context has no identity. Batching and
// non-JSON transformers are not supported.
package rpc
