package scene

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saravenpi/firewood/internal/models"
	"github.com/saravenpi/firewood/internal/session"
)

type pendingImages struct {
	refs []*ImageRef
}

func (p *pendingImages) Load(src string) *ImageRef {
	r := NewImageRef(src)
	p.refs = append(p.refs, r)
	return r
}

func snapshot(platform models.Platform, edit bool) session.Snapshot {
	s := session.New(session.Options{Platform: platform, ShowDateBar: true})
	s.SetEditMode(edit)
	return s.Snapshot()
}

func TestHex(t *testing.T) {
	r, g, b, a := Hex("#ABC1D1").RGBA()
	assert.Equal(t, uint32(0xAB), r>>8)
	assert.Equal(t, uint32(0xC1), g>>8)
	assert.Equal(t, uint32(0xD1), b>>8)
	assert.Equal(t, uint32(0xFF), a>>8)

	_, _, _, a = Hex("#00000080").RGBA()
	assert.Equal(t, uint32(0x80), a>>8)

	r, g, b, _ = Hex("nope").RGBA()
	assert.Zero(t, r+g+b)
}

func TestIsInteractive(t *testing.T) {
	assert.True(t, IsInteractive(Box(Style{}).WithClass(ClassInteractiveInput)))
	assert.True(t, IsInteractive(Box(Style{}).WithClass(ClassInlineControls)))
	assert.True(t, IsInteractive(Box(Style{}).WithClass(ClassEditMode)))
	assert.True(t, IsInteractive(Box(Style{}).WithAttr(AttrHideInScreenshot, "")))
	assert.False(t, IsInteractive(Box(Style{}).WithClass("bubble")))
}

func TestFindByIDAndWalk(t *testing.T) {
	root := Box(Style{},
		Box(Style{}, Text("a", Style{}).WithID("a")).WithID("inner"),
		nil,
		Text("b", Style{}).WithID("b"),
	)
	require.Len(t, root.Children, 2)
	assert.Equal(t, "a", root.FindByID("a").Text)
	assert.Nil(t, root.FindByID("missing"))

	var seen []string
	root.Walk(func(n *Node) bool {
		seen = append(seen, n.ID)
		return n.ID != "inner"
	})
	assert.Equal(t, []string{"", "inner", "b"}, seen)
}

func TestImageRef(t *testing.T) {
	r := NewImageRef("x.png")
	assert.False(t, r.Complete())
	assert.Nil(t, r.Image())

	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	r.Resolve(img, nil)
	r.Resolve(nil, assert.AnError)
	assert.True(t, r.Complete())
	assert.Same(t, img, r.Image())
	assert.NoError(t, r.Err())
	<-r.Done()
}

func TestBuild_KakaoTalk(t *testing.T) {
	images := &pendingImages{}
	root := (&Builder{Images: images}).Build(snapshot(models.PlatformKakaoTalk, false))

	content := root.FindByID(ChatContentID)
	require.NotNil(t, content)
	require.NotNil(t, root.FindByID("status-bar"))
	require.NotNil(t, content.FindByID("date-bar"))
	assert.Equal(t, "2025년 1월 12일 일요일", content.FindByID("date-bar").Children[0].Text)

	bubbles := content.FindAll(func(n *Node) bool { return n.HasClass("bubble") })
	assert.Len(t, bubbles, 6)
	assert.Nil(t, content.FindByID("read-receipt"))
	assert.Empty(t, content.FindAll(IsInteractive))

	// One avatar per receiver group that shows its profile.
	assert.Len(t, content.Images(), 2)
	assert.Len(t, images.refs, 2)
}

func TestBuild_InstagramReadReceipt(t *testing.T) {
	root := (&Builder{}).Build(snapshot(models.PlatformInstagram, false))
	content := root.FindByID(ChatContentID)
	require.NotNil(t, content)

	assert.Nil(t, content.FindByID("date-bar"))
	receipt := content.FindByID("read-receipt")
	require.NotNil(t, receipt)
	assert.Equal(t, "읽음", receipt.Text)

	// The receipt sits under the last message, which the sender wrote.
	last := content.FindByID("message-6")
	require.NotNil(t, last)
	var parent *Node
	content.Walk(func(n *Node) bool {
		for _, c := range n.Children {
			if c == last {
				parent = n
			}
		}
		return parent == nil
	})
	require.NotNil(t, parent)
	assert.Contains(t, parent.Children, receipt)
}

func TestBuild_EditModeAddsInteractiveNodes(t *testing.T) {
	for _, p := range []models.Platform{models.PlatformKakaoTalk, models.PlatformInstagram} {
		t.Run(string(p), func(t *testing.T) {
			content := (&Builder{}).Build(snapshot(p, true)).FindByID(ChatContentID)
			interactive := content.FindAll(IsInteractive)
			require.NotEmpty(t, interactive)
			assert.NotNil(t, content.FindByID("composer"))
			assert.NotNil(t, content.FindByID("delete-1"))
			// The static input bar stays in the picture.
			assert.False(t, IsInteractive(content.FindByID("input-bar")))
		})
	}
}

func TestBuild_EmptyConversationHasNoDateBar(t *testing.T) {
	snap := snapshot(models.PlatformKakaoTalk, false)
	snap.Messages = nil
	content := (&Builder{}).Build(snap).FindByID(ChatContentID)
	assert.Nil(t, content.FindByID("date-bar"))
	assert.Empty(t, content.FindAll(func(n *Node) bool { return n.HasClass("bubble") }))
}
