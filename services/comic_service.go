package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/yroh0840/manga-relay/models"
	"github.com/yroh0840/manga-relay/repository"
	"gorm.io/gorm"
)

// FooterCommentLimit is how many public comments every view carries
const FooterCommentLimit = 5

// ComicSummary is a listed comic with its visible koma count
type ComicSummary struct {
	models.Comic
	KomaCount int64 `json:"koma_count"`
}

// IndexView is the public listing
type IndexView struct {
	Comics         []ComicSummary         `json:"comics"`
	PublicComments []models.PublicComment `json:"public_comments"`
}

// DetailView is one comic with its visible komas in frame order
type DetailView struct {
	Comic          models.Comic           `json:"comic"`
	Komas          []models.Koma          `json:"komas"`
	KomaCount      int                    `json:"koma_count"`
	PublicComments []models.PublicComment `json:"public_comments"`
}

// AdminComicSummary includes deleted comics and both koma counts
type AdminComicSummary struct {
	models.Comic
	ActiveKomaCount int64 `json:"active_koma_count"`
	TotalKomaCount  int64 `json:"total_koma_count"`
}

// AdminDetailView lists every koma of a comic, deleted ones included
type AdminDetailView struct {
	Comic models.Comic  `json:"comic"`
	Komas []models.Koma `json:"komas"`
}

// ComicService serves the listing, detail and moderation workflows
type ComicService struct {
	db  *gorm.DB
	log zerolog.Logger
}

func NewComicService(db *gorm.DB, log zerolog.Logger) *ComicService {
	return &ComicService{db: db, log: log}
}

func (s *ComicService) repos(ctx context.Context) (*repository.ComicRepository, *repository.KomaRepository, *repository.GormFeedbackRepository) {
	db := s.db.WithContext(ctx)
	return repository.NewComicRepository(db), repository.NewKomaRepository(db), repository.NewGormFeedbackRepository(db)
}

func comicIDs(comics []models.Comic) []uint {
	ids := make([]uint, len(comics))
	for i, c := range comics {
		ids[i] = c.ID
	}
	return ids
}

func (s *ComicService) List(ctx context.Context) (*IndexView, error) {
	comicRepo, komaRepo, feedbackRepo := s.repos(ctx)

	comics, err := comicRepo.ListActive()
	if err != nil {
		return nil, err
	}
	counts, err := komaRepo.CountActiveByComics(comicIDs(comics))
	if err != nil {
		return nil, err
	}
	comments, err := feedbackRepo.ListRecentPublicComments(FooterCommentLimit)
	if err != nil {
		return nil, err
	}

	view := &IndexView{Comics: make([]ComicSummary, 0, len(comics)), PublicComments: comments}
	for _, c := range comics {
		view.Comics = append(view.Comics, ComicSummary{Comic: c, KomaCount: counts[c.ID]})
	}
	return view, nil
}

// Detail returns the comic even when it is soft deleted; its komas are then all hidden
func (s *ComicService) Detail(ctx context.Context, comicID uint) (*DetailView, error) {
	comicRepo, komaRepo, feedbackRepo := s.repos(ctx)

	comic, err := getComic(comicRepo, comicID)
	if err != nil {
		return nil, err
	}
	komas, err := komaRepo.ListActiveByComic(comicID)
	if err != nil {
		return nil, err
	}
	comments, err := feedbackRepo.ListRecentPublicComments(FooterCommentLimit)
	if err != nil {
		return nil, err
	}

	return &DetailView{Comic: *comic, Komas: komas, KomaCount: len(komas), PublicComments: comments}, nil
}

func (s *ComicService) AdminList(ctx context.Context) ([]AdminComicSummary, error) {
	comicRepo, komaRepo, _ := s.repos(ctx)

	comics, err := comicRepo.ListAll()
	if err != nil {
		return nil, err
	}
	ids := comicIDs(comics)
	active, err := komaRepo.CountActiveByComics(ids)
	if err != nil {
		return nil, err
	}
	total, err := komaRepo.CountByComics(ids)
	if err != nil {
		return nil, err
	}

	summaries := make([]AdminComicSummary, 0, len(comics))
	for _, c := range comics {
		summaries = append(summaries, AdminComicSummary{Comic: c, ActiveKomaCount: active[c.ID], TotalKomaCount: total[c.ID]})
	}
	return summaries, nil
}

func (s *ComicService) AdminDetail(ctx context.Context, comicID uint) (*AdminDetailView, error) {
	comicRepo, komaRepo, _ := s.repos(ctx)

	comic, err := getComic(comicRepo, comicID)
	if err != nil {
		return nil, err
	}
	komas, err := komaRepo.ListByComic(comicID)
	if err != nil {
		return nil, err
	}
	return &AdminDetailView{Comic: *comic, Komas: komas}, nil
}

// SoftDeleteComic hides the comic and every koma of it
func (s *ComicService) SoftDeleteComic(ctx context.Context, comicID uint) error {
	return s.setComicDeleted(ctx, comicID, true)
}

// RestoreComic brings back the comic and every koma of it
func (s *ComicService) RestoreComic(ctx context.Context, comicID uint) error {
	return s.setComicDeleted(ctx, comicID, false)
}

func (s *ComicService) setComicDeleted(ctx context.Context, comicID uint, deleted bool) error {
	var flagged int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repository.NewComicRepository(tx).SetDeleted(comicID, deleted); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %d", ErrComicNotFound, comicID)
			}
			return err
		}
		n, err := repository.NewKomaRepository(tx).SetDeletedByComic(comicID, deleted)
		flagged = n
		return err
	})
	if err != nil {
		return err
	}

	s.log.Info().Uint("comic_id", comicID).Bool("deleted", deleted).Int64("komas", flagged).Msg("comics: comic flag changed")
	return nil
}

// SoftDeleteKoma hides a single koma. its frame number stays taken.
func (s *ComicService) SoftDeleteKoma(ctx context.Context, komaID uint) error {
	_, komaRepo, _ := s.repos(ctx)

	if err := komaRepo.SetDeleted(komaID, true); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %d", ErrKomaNotFound, komaID)
		}
		return err
	}
	s.log.Info().Uint("koma_id", komaID).Msg("comics: koma soft deleted")
	return nil
}

// RestoreKoma is refused while the koma's comic is deleted, since a deleted
// comic never has visible komas
func (s *ComicService) RestoreKoma(ctx context.Context, komaID uint) error {
	comicRepo, komaRepo, _ := s.repos(ctx)

	koma, err := komaRepo.GetByID(komaID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %d", ErrKomaNotFound, komaID)
		}
		return err
	}
	comic, err := getComic(comicRepo, koma.ComicID)
	if err != nil && !errors.Is(err, ErrComicNotFound) {
		return err
	}
	if comic != nil && comic.IsDeleted {
		return fmt.Errorf("%w: restore comic %d first", ErrComicDeleted, comic.ID)
	}

	if err := komaRepo.SetDeleted(komaID, false); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %d", ErrKomaNotFound, komaID)
		}
		return err
	}
	s.log.Info().Uint("koma_id", komaID).Msg("comics: koma restored")
	return nil
}

func getComic(repo repository.ComicRepositoryInterface, comicID uint) (*models.Comic, error) {
	comic, err := repo.GetByID(comicID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrComicNotFound, comicID)
		}
		return nil, err
	}
	return comic, nil
}
