// Package normalisers reduces markup in extracted document text to plain
// text. A Registry applies every normaliser whose markup it detects, in
// priority order, to each text field of a document.
package normalisers
