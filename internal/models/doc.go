// Package models defines the domain entities shared by the discog packages.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): Lightweight structs holding what the Spotify Web API returns
//   - [User] : The authenticated account
//   - [Artist] : Search result with its promotional image
//   - [Album] : One release, carrying the release date used for ordering
//   - [Track] : Song identifier and name stamped with its album's release date
//   - [Playlist] : Playlist metadata including the owner
//
// 2. Persistent Entities: Database-backed models with full lifecycle management
//   - [Run] : Journal record of one artist processed by a sync
//
// Persistent entities implement the Model interface providing an ID, timestamps, and validation.
// The Repository[T] interface defines standard CRUD operations for database access.
//
// Discography playlists are named "<Artist> Discography"; see [PlaylistName] and [ArtistFromPlaylistName].
package models
