// Package webui serves the recommendation page and its JSON API.
//
// The router is chi with request ids, panic recovery and request logging
// applied globally. Recommendations are ranked and their posters resolved
// sequentially inside each request; the dataset is shared read-only across
// requests. Run holds a lock file under the log directory so only one server
// binds per installation.
package webui
