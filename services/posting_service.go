package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yroh0840/manga-relay/media"
	"github.com/yroh0840/manga-relay/models"
	"github.com/yroh0840/manga-relay/repository"
	"github.com/yroh0840/manga-relay/workers"
	"gorm.io/gorm"
)

// NewComicTarget is the form value that starts a new relay
const NewComicTarget = "new"

// NotificationQueue accepts notifications without blocking the caller
type NotificationQueue interface {
	Enqueue(job workers.NotificationJob) bool
}

// PostRequest is one uploaded panel
type PostRequest struct {
	ComicID  string // "", "new" or a numeric comic id
	Title    string // used only when a new comic is created
	MaxKoma  int    // 0 means the default
	Filename string
	Data     []byte
}

// PostResult describes the stored koma
type PostResult struct {
	ComicID     uint
	KomaID      uint
	FrameNumber int
	NewComic    bool
}

// PostingService appends komas to comics
type PostingService struct {
	db            *gorm.DB
	store         media.Store
	processor     *media.Processor // nil when thumbnails are not generated
	notifications NotificationQueue
	publicBaseURL string
	log           zerolog.Logger

	// serializes frame number assignment
	postMu sync.Mutex
}

func NewPostingService(
	db *gorm.DB,
	store media.Store,
	processor *media.Processor,
	notifications NotificationQueue,
	publicBaseURL string,
	log zerolog.Logger,
) *PostingService {
	return &PostingService{
		db:            db,
		store:         store,
		processor:     processor,
		notifications: notifications,
		publicBaseURL: strings.TrimSuffix(publicBaseURL, "/"),
		log:           log,
	}
}

type postTarget struct {
	comicID  uint
	newComic bool
}

func parseTarget(raw string) (postTarget, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == NewComicTarget {
		return postTarget{newComic: true}, nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return postTarget{}, fmt.Errorf("%w: %q", ErrInvalidComicID, raw)
	}
	return postTarget{comicID: uint(id)}, nil
}

// Post validates the upload, stores the image and records the koma as the
// next frame of the target comic
func (s *PostingService) Post(ctx context.Context, req PostRequest) (*PostResult, error) {
	if req.Filename == "" {
		return nil, ErrNoFile
	}
	ext, ok := media.AllowedExtension(req.Filename)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDisallowedExtension, req.Filename)
	}
	target, err := parseTarget(req.ComicID)
	if err != nil {
		return nil, err
	}
	img, err := media.DecodeUpload(req.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	filename := uuid.NewString() + "." + ext

	s.postMu.Lock()
	defer s.postMu.Unlock()

	var (
		result    PostResult
		comic     *models.Comic
		storedRef string
		thumbRef  *string
	)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		comicRepo := repository.NewComicRepository(tx)
		komaRepo := repository.NewKomaRepository(tx)

		frame := 1
		if target.newComic {
			comic = &models.Comic{Title: strings.TrimSpace(req.Title), MaxKoma: req.MaxKoma}
			if err := comicRepo.Create(comic); err != nil {
				return err
			}
		} else {
			found, err := comicRepo.GetByID(target.comicID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: %d", ErrComicNotFound, target.comicID)
				}
				return err
			}
			comic = found

			maxFrame, err := komaRepo.MaxFrameNumber(comic.ID)
			if err != nil {
				return err
			}
			frame = maxFrame + 1
		}

		ref, err := s.store.Save(ctx, comic.ID, filename, bytes.NewReader(req.Data))
		if err != nil {
			return fmt.Errorf("failed to store image: %w", err)
		}
		storedRef = ref

		if s.processor != nil {
			thumb, err := s.processor.GenerateThumbnail(img, ref)
			if err != nil {
				s.log.Warn().Err(err).Str("image", ref).Msg("posting: thumbnail generation failed")
			} else {
				thumbRef = &thumb
			}
		}

		koma := &models.Koma{
			ComicID:           comic.ID,
			FrameNumber:       frame,
			ImageFilename:     ref,
			ThumbnailFilename: thumbRef,
		}
		if err := komaRepo.Create(koma); err != nil {
			return err
		}

		result = PostResult{
			ComicID:     comic.ID,
			KomaID:      koma.ID,
			FrameNumber: frame,
			NewComic:    target.newComic,
		}
		return nil
	})
	if err != nil {
		s.discardStored(storedRef, thumbRef)
		return nil, err
	}

	s.log.Info().Uint("comic_id", result.ComicID).Uint("koma_id", result.KomaID).Int("frame", result.FrameNumber).
		Bool("new_comic", result.NewComic).Msg("posting: koma posted")

	s.announce(comic, result)
	return &result, nil
}

// discardStored removes files written by a post whose transaction failed
func (s *PostingService) discardStored(imageRef string, thumbRef *string) {
	ctx := context.Background()
	if imageRef != "" {
		if err := s.store.Delete(ctx, imageRef); err != nil {
			s.log.Warn().Err(err).Str("image", imageRef).Msg("posting: failed to remove orphaned image")
		}
	}
	if thumbRef != nil {
		if err := s.store.Delete(ctx, *thumbRef); err != nil {
			s.log.Warn().Err(err).Str("thumbnail", *thumbRef).Msg("posting: failed to remove orphaned thumbnail")
		}
	}
}

// ComicURL is the public link of a comic detail page
func (s *PostingService) ComicURL(comicID uint) string {
	return fmt.Sprintf("%s/comic/%d", s.publicBaseURL, comicID)
}

func (s *PostingService) announce(comic *models.Comic, result PostResult) {
	if s.notifications == nil {
		return
	}

	headline := "新しいコマが投稿されました！"
	if result.NewComic {
		headline = "新しい漫画リレーが始まりました！"
	}
	message := fmt.Sprintf("%s\n「%s」 %dコマ目\n%s", headline, comic.Title, result.FrameNumber, s.ComicURL(result.ComicID))

	if !s.notifications.Enqueue(workers.NotificationJob{ComicID: result.ComicID, KomaID: result.KomaID, Message: message}) {
		s.log.Warn().Uint("comic_id", result.ComicID).Msg("posting: notification not queued")
	}
}
