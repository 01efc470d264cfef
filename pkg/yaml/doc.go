// Package yaml wraps [github.com/goccy/go-yaml] with the decoding, encoding,
// schema validation and error annotation used for rule sets.
package yaml
