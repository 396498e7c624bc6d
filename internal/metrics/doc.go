// Package metrics declares the Prometheus collectors cinematch exports on
// /metrics and the helpers components call to record into them.
package metrics
