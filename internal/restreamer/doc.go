// Package restreamer talks to a datarhei Restreamer control server: a login
// exchange for a bearer token and start/stop commands against an ingest
// process and its snapshot sub-process.
package restreamer
