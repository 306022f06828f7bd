// Package sources retrieves registry snapshots and places them on local disk
// for the parser.
//
// A SourceHandler knows one kind of origin:
//   - api: downloads the open data archive over HTTP. The configured URL may be
//     the archive itself or the open data page linking to it.
//   - file: uses a local XML snapshot, or extracts a local zip archive.
//   - s3: downloads the archive from an S3 compatible bucket.
//
// Every handler returns a FetchResult pointing at the XML document, together
// with the SHA256 of its content so passes over an unchanged snapshot can be
// recognized. Archives are extracted into the configured download directory;
// when an archive holds several documents the first XML file in lexical order
// is used.
package sources
