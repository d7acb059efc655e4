// Package cover downloads an artist's promotional image and turns it into a playlist cover.
//
// [Downloader] fetches the image with a timeout and a size cap. [Encode] center-crops it to a square,
// scales it with Catmull-Rom resampling and re-encodes it as a JPEG small enough for the playlist image
// upload limit ([MaxUploadSize] bytes after base64 encoding).
package cover
