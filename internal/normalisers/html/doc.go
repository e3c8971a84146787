// Package html strips HTML markup from rich-text fields, keeping block
// boundaries as line breaks and decoding entities.
package html
