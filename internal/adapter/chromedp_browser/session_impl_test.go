package chromedp_browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/card-scraper/internal/repository"
)

func TestWaitErr(t *testing.T) {
	live := context.Background()

	assert.NoError(t, waitErr(live, nil))

	err := waitErr(live, fmt.Errorf("run: %w", context.DeadlineExceeded))
	assert.ErrorIs(t, err, repository.ErrWaitTimeout)

	err = waitErr(live, chromedp.ErrPollingTimeout)
	assert.ErrorIs(t, err, repository.ErrWaitTimeout)

	other := errors.New("websocket closed")
	assert.Equal(t, other, waitErr(live, other))

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	err = waitErr(cancelled, context.DeadlineExceeded)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, repository.ErrWaitTimeout)
}

func TestRevealNodes_ContinuesPastFailures(t *testing.T) {
	nodes := []*cdp.Node{{NodeID: 1}, {NodeID: 2}, {NodeID: 3}, {NodeID: 4}}
	var scrolled []cdp.NodeID
	detached := errors.New("node is detached from document")

	revealed, err := revealNodes(context.Background(), nodes, func(n *cdp.Node) error {
		scrolled = append(scrolled, n.NodeID)
		if n.NodeID == 2 {
			return detached
		}
		return nil
	})

	assert.Equal(t, []cdp.NodeID{1, 2, 3, 4}, scrolled)
	assert.Equal(t, 3, revealed)
	require.ErrorIs(t, err, detached)
	assert.Contains(t, err.Error(), "revealed 3 of 4")
}

func TestRevealNodes_AllRevealed(t *testing.T) {
	nodes := []*cdp.Node{{NodeID: 1}, {NodeID: 2}}
	revealed, err := revealNodes(context.Background(), nodes, func(*cdp.Node) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, 2, revealed)

	revealed, err = revealNodes(context.Background(), nil, func(*cdp.Node) error { return nil })
	require.NoError(t, err)
	assert.Zero(t, revealed)
}

func TestRevealNodes_StopsWhenBudgetRunsOut(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	nodes := []*cdp.Node{{NodeID: 1}, {NodeID: 2}, {NodeID: 3}}
	calls := 0

	revealed, err := revealNodes(ctx, nodes, func(*cdp.Node) error {
		calls++
		cancel()
		return nil
	})

	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, revealed)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClose_RunsOnce(t *testing.T) {
	var tabCancels, allocCancels int
	s := &ChromedpSession{
		// A context without a chromedp target, so Cancel reports ErrInvalidContext.
		tabCtx:      context.Background(),
		tabCancel:   func() { tabCancels++ },
		allocCancel: func() { allocCancels++ },
		logger:      slog.Default(),
	}

	first := s.Close()
	second := s.Close()

	assert.ErrorIs(t, first, chromedp.ErrInvalidContext)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, tabCancels)
	assert.Equal(t, 1, allocCancels)
}
