package dispatch

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"

	"github.com/ayusman/posesurf/internal/gesture"
)

var browserKeys = map[Key]string{
	KeyUp:    kb.ArrowUp,
	KeyDown:  kb.ArrowDown,
	KeyLeft:  kb.ArrowLeft,
	KeyRight: kb.ArrowRight,
}

// BrowserDispatcher drives a Chrome session through the DevTools protocol
// and presses arrow keys in the opened page.
type BrowserDispatcher struct {
	url      string
	headless bool

	mu          sync.Mutex
	ctx         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
}

// NewBrowserDispatcher creates a dispatcher for the page at url.
func NewBrowserDispatcher(url string, headless bool) *BrowserDispatcher {
	return &BrowserDispatcher{url: url, headless: headless}
}

// Open launches Chrome and navigates to the game page.
// The browser outlives ctx; only Close shuts it down.
func (b *BrowserDispatcher) Open(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.ctx != nil {
		return nil
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", b.headless),
		chromedp.Flag("autoplay-policy", "no-user-gesture-required"),
		chromedp.WindowSize(1280, 800),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithLogf(log.Printf))

	// Abort a slow navigation if the caller gives up.
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	if err := chromedp.Run(tabCtx, chromedp.Navigate(b.url)); err != nil {
		cancelTab()
		cancelAlloc()
		return fmt.Errorf("open %s: %w", b.url, err)
	}

	b.ctx = tabCtx
	b.cancelTab = cancelTab
	b.cancelAlloc = cancelAlloc

	log.Printf("Browser session opened at %s", b.url)
	return nil
}

// Dispatch presses the arrow key bound to a.
func (b *BrowserDispatcher) Dispatch(ctx context.Context, a gesture.Action) error {
	key, err := KeyFor(a)
	if err != nil {
		return err
	}

	b.mu.Lock()
	tabCtx := b.ctx
	b.mu.Unlock()

	if tabCtx == nil {
		return ErrNotOpen
	}

	if err := chromedp.Run(tabCtx, chromedp.KeyEvent(browserKeys[key])); err != nil {
		return fmt.Errorf("send %s: %w", key, err)
	}
	return nil
}

// Close shuts the browser down. It is safe to call more than once.
func (b *BrowserDispatcher) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.ctx == nil {
		return nil
	}

	b.cancelTab()
	b.cancelAlloc()
	b.ctx = nil
	b.cancelTab = nil
	b.cancelAlloc = nil

	log.Println("Browser session closed")
	return nil
}
