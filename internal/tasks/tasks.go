package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/discog/internal/cover"
	"github.com/desertthunder/discog/internal/models"
	"github.com/desertthunder/discog/internal/services"
	"github.com/desertthunder/discog/internal/shared"
)

// StepsPerArtist is the number of progress steps reported for each artist.
const StepsPerArtist = 7

// ImageSource fetches raw image bytes.
type ImageSource interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

// RunRecorder persists journal entries for processed artists.
type RunRecorder interface {
	Create(run *models.Run) error
	Update(run *models.Run) error
}

// Options controls how playlists are created and decorated.
type Options struct {
	Public      bool   // visibility of newly created playlists
	Description string // description of newly created playlists
	SkipCover   bool
	CoverSize   int
}

// ArtistResult is the outcome of syncing a single artist.
type ArtistResult struct {
	Artist       string
	Index        int // 1-based position in the run
	Count        int
	ArtistID     string
	PlaylistID   string
	PlaylistName string
	Created      bool
	Tracks       int // tracks in the discography
	Added        int
	CoverSet     bool
	CoverErr     error // cover download or upload failure, reported as a warning
	Status       models.RunStatus
	Err          error
}

// SyncResult accumulates artist results across a run.
//
// Next is the index in Names of the first artist not yet processed.
type SyncResult struct {
	Names    []string
	Next     int
	Results  []*ArtistResult
	Added    int
	Failed   int
	NotFound int
}

// Done reports whether every artist has been processed.
func (r *SyncResult) Done() bool {
	return r.Next >= len(r.Names)
}

// Err returns [shared.ErrPartialFailure] when at least one artist failed.
func (r *SyncResult) Err() error {
	if r.Failed == 0 {
		return nil
	}
	return fmt.Errorf("%w: %d of %d artists", shared.ErrPartialFailure, r.Failed, len(r.Names))
}

// DiscographyEngine orchestrates discography playlist updates against a [services.Service].
type DiscographyEngine struct {
	service services.Service
	images  ImageSource
	logger  *log.Logger
	opts    Options

	journal RunRecorder
	batchID string
	pending *models.Run // journal row of an interrupted artist, reused when it is retried
}

// NewDiscographyEngine creates a new DiscographyEngine. A nil logger discards log output.
func NewDiscographyEngine(service services.Service, images ImageSource, logger *log.Logger, opts Options) *DiscographyEngine {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if opts.CoverSize <= 0 {
		opts.CoverSize = cover.DefaultSize
	}
	return &DiscographyEngine{service: service, images: images, logger: logger, opts: opts}
}

// SetJournal records every processed artist in journal under batchID.
func (e *DiscographyEngine) SetJournal(journal RunRecorder, batchID string) {
	e.journal = journal
	e.batchID = batchID
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *DiscographyEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// DiscographyPlaylists returns the discography playlists userID owns, in library order.
func (e *DiscographyEngine) DiscographyPlaylists(ctx context.Context, userID string) ([]models.Playlist, error) {
	playlists, err := e.service.UserPlaylists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list playlists: %w", err)
	}

	var owned []models.Playlist
	for _, p := range playlists {
		if p.OwnerID != userID {
			continue
		}
		if _, ok := models.ArtistFromPlaylistName(p.Name); ok {
			owned = append(owned, p)
		}
	}
	return owned, nil
}

// DiscoverArtists returns the artist names behind the user's own discography playlists, in library order and
// without duplicates.
func (e *DiscographyEngine) DiscoverArtists(ctx context.Context, userID string) ([]string, error) {
	playlists, err := e.DiscographyPlaylists(ctx, userID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var names []string
	for _, p := range playlists {
		artist, _ := models.ArtistFromPlaylistName(p.Name)
		if seen[artist] {
			continue
		}
		seen[artist] = true
		names = append(names, artist)
		e.logger.Info("found discography playlist", "artist", artist, "playlist", p.ID)
	}

	if len(names) == 0 {
		e.logger.Info("no discography playlists found")
	}
	return names, nil
}

// Discography returns every track across the artist's albums, ordered by release date. Tracks released on the
// same date keep the order in which their albums were listed.
func (e *DiscographyEngine) Discography(ctx context.Context, artistID string) ([]models.Track, error) {
	albums, err := e.service.ArtistAlbums(ctx, artistID)
	if err != nil {
		return nil, fmt.Errorf("failed to list albums: %w", err)
	}

	var tracks []models.Track
	for _, album := range albums {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		albumTracks, err := e.service.AlbumTracks(ctx, album)
		if err != nil {
			return nil, fmt.Errorf("failed to list tracks of %q: %w", album.Name, err)
		}
		tracks = append(tracks, albumTracks...)
	}

	// Release dates are YYYY, YYYY-MM or YYYY-MM-DD, so string order is chronological.
	slices.SortStableFunc(tracks, func(a, b models.Track) int {
		switch {
		case a.ReleaseDate < b.ReleaseDate:
			return -1
		case a.ReleaseDate > b.ReleaseDate:
			return 1
		}
		return 0
	})

	e.logger.Info("collected tracks", "artist_id", artistID, "albums", len(albums), "tracks", len(tracks))
	return tracks, nil
}

// FindPlaylist returns the first playlist named name that userID owns, or nil.
func (e *DiscographyEngine) FindPlaylist(ctx context.Context, userID, name string) (*models.Playlist, error) {
	playlists, err := e.service.UserPlaylists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list playlists: %w", err)
	}

	for _, p := range playlists {
		if p.Name == name && p.OwnerID == userID {
			e.logger.Info("found existing playlist", "name", name, "id", p.ID)
			return &p, nil
		}
	}

	e.logger.Info("no existing playlist", "name", name)
	return nil, nil
}

// NewTrackIDs returns the IDs of tracks missing from existing, in order, each at most once.
func NewTrackIDs(tracks []models.Track, existing []string) []string {
	seen := make(map[string]bool, len(existing)+len(tracks))
	for _, id := range existing {
		seen[id] = true
	}

	var ids []string
	for _, t := range tracks {
		if t.ID == "" || seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		ids = append(ids, t.ID)
	}
	return ids
}

// SyncArtist brings the discography playlist of name up to date.
//
// An artist the search cannot find yields a result with status [models.RunNotFound] and a nil error. Cover
// problems are recorded in CoverErr and do not fail the artist.
func (e *DiscographyEngine) SyncArtist(ctx context.Context, user *models.User, name string, index, count int, progress chan<- ProgressUpdate) (*ArtistResult, error) {
	res := &ArtistResult{
		Artist:       name,
		Index:        index,
		Count:        count,
		PlaylistName: models.PlaylistName(name),
		Status:       models.RunRunning,
	}

	logger := shared.WithLogger(e.logger, "artist", name)

	step := 0
	begin := func(phase Phase) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		e.sendProgress(progress, stepUpdate(res, phase, step))
		return nil
	}
	fail := func(err error) (*ArtistResult, error) {
		res.Status = models.RunFailed
		res.Err = err
		logger.Error("failed to process artist", "err", err)
		return res, err
	}

	if err := begin(SearchArtist); err != nil {
		return fail(err)
	}
	artist, err := e.service.SearchArtist(ctx, name)
	if errors.Is(err, shared.ErrArtistNotFound) {
		logger.Warn("artist not found")
		res.Status = models.RunNotFound
		return res, nil
	}
	if err != nil {
		return fail(fmt.Errorf("failed to search artist: %w", err))
	}
	res.ArtistID = artist.ID
	logger.Info("found artist", "id", artist.ID)
	step++

	if err := begin(FindPlaylist); err != nil {
		return fail(err)
	}
	playlist, err := e.FindPlaylist(ctx, user.ID, res.PlaylistName)
	if err != nil {
		return fail(err)
	}
	step++

	if err := begin(CollectTracks); err != nil {
		return fail(err)
	}
	tracks, err := e.Discography(ctx, artist.ID)
	if err != nil {
		return fail(err)
	}
	res.Tracks = len(tracks)
	step++

	var existing []string
	if playlist != nil {
		if err := begin(ExistingTracks); err != nil {
			return fail(err)
		}
		existing, err = e.service.PlaylistTrackIDs(ctx, playlist.ID)
		if err != nil {
			return fail(fmt.Errorf("failed to get existing tracks: %w", err))
		}
		logger.Info("retrieved existing tracks", "playlist", playlist.ID, "count", len(existing))
	} else {
		if err := begin(CreatePlaylist); err != nil {
			return fail(err)
		}
		playlist, err = e.service.CreatePlaylist(ctx, user.ID, res.PlaylistName, e.opts.Description, e.opts.Public)
		if err != nil {
			return fail(fmt.Errorf("failed to create playlist: %w", err))
		}
		res.Created = true
		logger.Info("created playlist", "name", res.PlaylistName, "id", playlist.ID)
	}
	res.PlaylistID = playlist.ID
	step++

	addPhase := AddNewTracks
	if res.Created {
		addPhase = AddTracks
	}
	if err := begin(addPhase); err != nil {
		return fail(err)
	}
	ids := NewTrackIDs(tracks, existing)
	res.Added, err = e.service.AddTracks(ctx, playlist.ID, ids)
	if err != nil {
		return fail(fmt.Errorf("failed to add tracks: %w", err))
	}
	if res.Added > 0 {
		logger.Info("added tracks", "playlist", playlist.ID, "count", res.Added)
	} else {
		logger.Info("no new tracks", "playlist", playlist.ID)
	}
	step++

	if err := e.syncCover(ctx, res, artist, &step, begin); err != nil {
		return fail(err)
	}

	res.Status = models.RunOK
	return res, nil
}

// syncCover runs the download and upload steps. It only returns an error when ctx is done.
func (e *DiscographyEngine) syncCover(ctx context.Context, res *ArtistResult, artist *models.Artist, step *int, begin func(Phase) error) error {
	if e.opts.SkipCover || artist.ImageURL == "" || e.images == nil {
		*step += 2
		return nil
	}

	if err := begin(DownloadCover); err != nil {
		return err
	}
	data, err := e.images.Download(ctx, artist.ImageURL)
	*step++
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		res.CoverErr = fmt.Errorf("%w: %v", shared.ErrImageDownload, err)
		e.logger.Warn("could not download cover image", "artist", res.Artist, "url", artist.ImageURL, "err", err)
		*step++
		return nil
	}

	if err := begin(SetCover); err != nil {
		return err
	}
	jpeg, err := cover.Encode(data, e.opts.CoverSize)
	if err == nil {
		err = e.service.SetPlaylistCover(ctx, res.PlaylistID, jpeg)
	}
	*step++
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		res.CoverErr = err
		e.logger.Warn("could not set cover image", "playlist", res.PlaylistID, "err", err)
		return nil
	}

	res.CoverSet = true
	e.logger.Info("set cover image", "playlist", res.PlaylistID)
	return nil
}

// Run processes names in order, one artist at a time.
func (e *DiscographyEngine) Run(ctx context.Context, user *models.User, names []string, progress chan<- ProgressUpdate) (*SyncResult, error) {
	return e.Resume(ctx, user, &SyncResult{Names: names}, progress)
}

// Resume continues result from result.Next.
//
// Failures of individual artists are collected in the result and do not stop the run. The run stops early when
// ctx is done or the token expires; the artist being processed is then left unrecorded in Results so a resumed
// run processes it again.
func (e *DiscographyEngine) Resume(ctx context.Context, user *models.User, result *SyncResult, progress chan<- ProgressUpdate) (*SyncResult, error) {
	if e.service == nil {
		return result, fmt.Errorf("%w: service not initialized", shared.ErrServiceUnavailable)
	}
	if user == nil {
		return result, fmt.Errorf("%w: user is required", shared.ErrMissingArgument)
	}

	count := len(result.Names)
	for result.Next < count {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		index := result.Next
		name := result.Names[index]

		run := e.startRun(name)
		res, err := e.SyncArtist(ctx, user, name, index+1, count, progress)
		if err != nil && (errors.Is(err, shared.ErrTokenExpired) || ctx.Err() != nil) {
			e.pending = run
			return result, err
		}
		e.finishRun(run, res)

		result.Results = append(result.Results, res)
		result.Added += res.Added
		switch res.Status {
		case models.RunFailed:
			result.Failed++
		case models.RunNotFound:
			result.NotFound++
		}
		result.Next++

		e.sendProgress(progress, artistDoneUpdate(res))
	}

	return result, nil
}

func (e *DiscographyEngine) startRun(name string) *models.Run {
	if e.journal == nil {
		return nil
	}

	if run := e.pending; run != nil {
		e.pending = nil
		if run.Artist == name {
			return run
		}
	}

	run := models.NewRun(e.batchID, name)
	if err := e.journal.Create(run); err != nil {
		e.logger.Warn("failed to journal run", "artist", name, "err", err)
		return nil
	}
	return run
}

func (e *DiscographyEngine) finishRun(run *models.Run, res *ArtistResult) {
	if run == nil || res == nil {
		return
	}

	run.ArtistID = res.ArtistID
	run.PlaylistID = res.PlaylistID
	run.PlaylistName = res.PlaylistName
	run.CreatedPlaylist = res.Created
	run.Added = res.Added
	run.CoverSet = res.CoverSet
	run.Finish(res.Status, res.Err)

	if err := e.journal.Update(run); err != nil {
		e.logger.Warn("failed to update journal", "artist", res.Artist, "run", run.ID(), "err", err)
	}
}
