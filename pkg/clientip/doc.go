// Package clientip extracts the requesting client's IP address from
// proxy headers with a RemoteAddr fallback. The gate records it on
// every transition so audit lines tie a tenant binding to its caller.
package clientip
