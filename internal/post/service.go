// Package post はブログ投稿のドメインロジックを提供する。
package post

import (
	"context"
	"fmt"

	"github.com/hitoshi/postboard/internal/model"
	"github.com/hitoshi/postboard/internal/repository"
	"github.com/hitoshi/postboard/internal/security"
	"github.com/hitoshi/postboard/internal/validation"
)

// Input は投稿の作成・更新時の入力値。
// Publishedがnilの場合、作成時はtrue、更新時は既存値を維持する。
type Input struct {
	Title     string `json:"title" validate:"notblank,max=255"`
	Content   string `json:"content" validate:"notblank"`
	Published *bool  `json:"published"`
}

// Service は投稿のCRUDを提供する。
// 入力値を検証してからサニタイズし、除去後に空になっていないかを再度検証する。
type Service struct {
	postRepo  repository.PostRepository
	sanitizer security.PostSanitizer
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(postRepo repository.PostRepository, sanitizer security.PostSanitizer) *Service {
	return &Service{
		postRepo:  postRepo,
		sanitizer: sanitizer,
	}
}

// List は全投稿を新しい順に返す。
func (s *Service) List(ctx context.Context) ([]*model.Post, error) {
	posts, err := s.postRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("投稿一覧の取得に失敗しました: %w", err)
	}
	return posts, nil
}

// Get は指定IDの投稿を返す。存在しない場合はPOST_NOT_FOUNDエラーを返す。
func (s *Service) Get(ctx context.Context, id int64) (*model.Post, error) {
	p, err := s.postRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("投稿の取得に失敗しました: %w", err)
	}
	if p == nil {
		return nil, model.NewPostNotFoundError(id)
	}
	return p, nil
}

// Create は投稿を作成する。
func (s *Service) Create(ctx context.Context, in Input) (*model.Post, error) {
	in, err := s.clean(in)
	if err != nil {
		return nil, err
	}

	published := true
	if in.Published != nil {
		published = *in.Published
	}

	created, err := s.postRepo.Create(ctx, &model.Post{
		Title:     in.Title,
		Content:   in.Content,
		Published: published,
	})
	if err != nil {
		return nil, fmt.Errorf("投稿の作成に失敗しました: %w", err)
	}
	return created, nil
}

// Update はタイトルと本文を置き換え、Publishedが指定されていれば公開状態も更新する。
func (s *Service) Update(ctx context.Context, id int64, in Input) (*model.Post, error) {
	in, err := s.clean(in)
	if err != nil {
		return nil, err
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	published := current.Published
	if in.Published != nil {
		published = *in.Published
	}

	updated, err := s.postRepo.Update(ctx, &model.Post{
		ID:        id,
		Title:     in.Title,
		Content:   in.Content,
		Published: published,
	})
	if err != nil {
		return nil, fmt.Errorf("投稿の更新に失敗しました: %w", err)
	}
	// 取得後に削除された
	if updated == nil {
		return nil, model.NewPostNotFoundError(id)
	}
	return updated, nil
}

// Delete は指定IDの投稿を削除する。存在しない場合はPOST_NOT_FOUNDエラーを返す。
func (s *Service) Delete(ctx context.Context, id int64) error {
	deleted, err := s.postRepo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("投稿の削除に失敗しました: %w", err)
	}
	if !deleted {
		return model.NewPostNotFoundError(id)
	}
	return nil
}

// clean は入力をそのまま検証し、サニタイズした値を返す。
// 文字数の上限は利用者が入力した文字列に対して判定する。
func (s *Service) clean(in Input) (Input, error) {
	if err := validation.Struct(in); err != nil {
		return Input{}, err
	}

	in.Title = s.sanitizer.SanitizeTitle(in.Title)
	in.Content = s.sanitizer.SanitizeContent(in.Content)

	// マークアップだけの値は除去後に空になる
	if err := validation.Struct(in); err != nil {
		return Input{}, err
	}
	return in, nil
}
