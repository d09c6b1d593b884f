// Package scraper catalogs a help-center website: its categories, the article
// links under each category, and each article's text.
//
// Requests are spaced by a rate limiter and carry a browser User-Agent. An
// HTTP 429 from the site pauses for a fixed interval and retries a bounded
// number of times; any other failure is returned to the caller so the article
// can be retried on a later run.
package scraper
