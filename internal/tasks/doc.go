// Package tasks builds and refreshes "<Artist> Discography" playlists.
//
// [DiscographyEngine] processes artists one at a time. For each artist it searches the catalogue, collects every
// track from the artist's albums, singles and compilations ordered by release date, finds or creates the
// playlist, appends the tracks the playlist lacks and replaces the cover with the artist's image.
//
// Operations emit [ProgressUpdate] values on a channel without blocking, so a slow or absent reader never stalls
// the sync. A [RunRecorder] may be attached to journal each artist's outcome.
package tasks
