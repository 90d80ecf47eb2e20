package service

import (
	"context"
	"strconv"
	"testing"
)

func TestCaptchaService_Generate(t *testing.T) {
	cases := []struct {
		draws    []int
		question string
		answer   string
	}{
		{[]int{2, 4, 0}, "3 + 5 = ?", "8"},
		{[]int{1, 6, 1}, "7 - 2 = ?", "5"},
		{[]int{9, 9, 2}, "10 × 10 = ?", "100"},
	}

	for _, tc := range cases {
		t.Run(tc.question, func(t *testing.T) {
			store := newStubCaptchaStore()
			svc := NewCaptchaService(store)
			draws := tc.draws
			svc.intn = func(int) int {
				v := draws[0]
				draws = draws[1:]
				return v
			}

			c, err := svc.Generate(context.Background())
			if err != nil {
				t.Fatalf("generate: %v", err)
			}
			if c.Question != tc.question {
				t.Fatalf("expected %q, got %q", tc.question, c.Question)
			}
			if store.answers[c.Key] != tc.answer {
				t.Fatalf("expected stored answer %s, got %q", tc.answer, store.answers[c.Key])
			}
		})
	}
}

func TestCaptchaService_AnswersAreNeverNegative(t *testing.T) {
	store := newStubCaptchaStore()
	svc := NewCaptchaService(store)

	for i := 0; i < 200; i++ {
		c, err := svc.Generate(context.Background())
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		n, err := strconv.Atoi(store.answers[c.Key])
		if err != nil || n < 0 || n > 100 {
			t.Fatalf("bad answer %q for %s", store.answers[c.Key], c.Question)
		}
	}
	if len(store.answers) != 200 {
		t.Fatalf("captcha keys collided: %d stored", len(store.answers))
	}
}
