package service

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"

	"github.com/google/uuid"

	"github.com/minics/console/internal/core/domain"
	"github.com/minics/console/internal/core/ports"
)

// CaptchaService hands out arithmetic challenges on operands 1..10.
type CaptchaService struct {
	store ports.CaptchaStore
	intn  func(n int) int
}

func NewCaptchaService(store ports.CaptchaStore) *CaptchaService {
	return &CaptchaService{store: store, intn: rand.Intn}
}

func (s *CaptchaService) Generate(ctx context.Context) (*domain.Captcha, error) {
	a := s.intn(10) + 1
	b := s.intn(10) + 1

	var (
		question string
		answer   int
	)
	switch s.intn(3) {
	case 0:
		question, answer = fmt.Sprintf("%d + %d = ?", a, b), a+b
	case 1:
		if a < b {
			a, b = b, a
		}
		question, answer = fmt.Sprintf("%d - %d = ?", a, b), a-b
	default:
		question, answer = fmt.Sprintf("%d × %d = ?", a, b), a*b
	}

	key := uuid.NewString()
	if err := s.store.Save(ctx, key, strconv.Itoa(answer)); err != nil {
		return nil, fmt.Errorf("save captcha: %w", err)
	}
	return &domain.Captcha{Key: key, Question: question}, nil
}
