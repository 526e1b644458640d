//go:build preview && cgo

package preview

import (
	"context"
	"image"

	"github.com/hajimehoshi/ebiten/v2"
)

// Available reports whether this build can open a window
const Available = true

// RunWindow opens a desktop window showing src and blocks until the window is
// closed or ctx is done. It must be called from the main goroutine.
func RunWindow(ctx context.Context, title string, src Source, scale int) error {
	if scale < 1 {
		scale = DefaultScale
	}
	g := &game{ctx: ctx, src: src, scale: scale}
	g.update()

	b := g.frame.Bounds()
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowSize(b.Dx(), b.Dy())
	ebiten.SetTPS(30)
	return ebiten.RunGame(g)
}

type game struct {
	ctx   context.Context
	src   Source
	scale int

	frame *image.RGBA
	img   *ebiten.Image
}

func (g *game) update() {
	g.frame = Render(g.src(), g.scale)
}

func (g *game) Update() error {
	if g.ctx.Err() != nil {
		return ebiten.Termination
	}
	g.update()
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	b := g.frame.Bounds()
	if g.img == nil || g.img.Bounds().Dx() != b.Dx() || g.img.Bounds().Dy() != b.Dy() {
		if g.img != nil {
			g.img.Deallocate()
		}
		g.img = ebiten.NewImage(b.Dx(), b.Dy())
	}
	g.img.WritePixels(g.frame.Pix)
	screen.DrawImage(g.img, nil)
}

func (g *game) Layout(_, _ int) (int, int) {
	b := g.frame.Bounds()
	return b.Dx(), b.Dy()
}
