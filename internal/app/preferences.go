package app

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/cesargomez89/showmover/internal/constants"
	"github.com/cesargomez89/showmover/internal/store"
)

var ErrInvalidTheme = errors.New("invalid theme")

// Preferences are per-install UI choices.
type Preferences struct {
	Theme string `json:"theme"`
}

type PreferencesService struct {
	Repo *store.SettingsRepo
}

func NewPreferencesService(repo *store.SettingsRepo) *PreferencesService {
	return &PreferencesService{Repo: repo}
}

func (s *PreferencesService) Get(ctx context.Context) (Preferences, error) {
	theme, err := s.Repo.Get(ctx, store.SettingUITheme)
	if err != nil {
		return Preferences{}, err
	}
	if theme == "" {
		theme = constants.DefaultUITheme
	}
	return Preferences{Theme: theme}, nil
}

// Reset drops stored choices so the defaults apply again.
func (s *PreferencesService) Reset(ctx context.Context) (Preferences, error) {
	if err := s.Repo.Delete(ctx, store.SettingUITheme); err != nil {
		return Preferences{}, err
	}
	return s.Get(ctx)
}

// SetTheme stores the theme after normalizing it to lower case.
func (s *PreferencesService) SetTheme(ctx context.Context, theme string) (Preferences, error) {
	theme = strings.ToLower(strings.TrimSpace(theme))
	if !slices.Contains(constants.UIThemes, theme) {
		return Preferences{}, fmt.Errorf("%w: must be one of %s", ErrInvalidTheme, strings.Join(constants.UIThemes, ", "))
	}
	if err := s.Repo.Set(ctx, store.SettingUITheme, theme); err != nil {
		return Preferences{}, err
	}
	return Preferences{Theme: theme}, nil
}
