// Package smile implements a streaming codec for the Smile binary data
// interchange format, a compact binary counterpart of JSON from the
// Jackson library family.
//
// A Decoder reads one document from a byte source and drives either a
// caller-supplied Visitor or the built-in Value-tree builder exposed via
// DecodeValue. An Encoder does the reverse: an imperative write/begin/end
// vocabulary, or EncodeValue to walk an existing Value tree. StreamDecoder
// iterates a sequence of top-level documents over one byte source.
//
// Neither a Decoder nor an Encoder is safe for concurrent use; callers that
// need concurrent access must serialize it themselves.
package smile
