package scene

import (
	"fmt"
	"image/color"
	"strings"
	"unicode/utf8"

	"github.com/saravenpi/firewood/internal/chat"
	"github.com/saravenpi/firewood/internal/models"
	"github.com/saravenpi/firewood/internal/session"
)

// ImageSource starts loading an image and returns its handle immediately.
type ImageSource interface {
	Load(src string) *ImageRef
}

// Builder turns a session snapshot into the phone screen tree.
type Builder struct {
	Images ImageSource
}

var (
	black     = Hex("#000000")
	white     = Hex("#FFFFFF")
	timeGray  = Hex("#666666")
	kakaoLine = Hex("#8E8E93")
	avatarBg  = Hex("#D1D5DB")
	danger    = Hex("#F44336")
)

// Build returns the root of the screen. The exportable part is the node with
// id ChatContentID.
func (b *Builder) Build(snap session.Snapshot) *Node {
	bg := white
	if snap.Platform == models.PlatformKakaoTalk {
		bg = Hex(models.KakaoBackground)
	}

	var content *Node
	switch snap.Platform {
	case models.PlatformInstagram:
		content = b.instagram(snap)
	default:
		content = b.kakaoTalk(snap)
	}
	content.ID = ChatContentID

	return Box(Style{Width: models.ScreenWidth, Background: bg},
		statusBar(snap.Device, bg),
		content,
	).WithID("screen")
}

func statusBar(device models.DeviceSettings, bg color.Color) *Node {
	return Box(Style{
		Direction:  Row,
		Align:      AlignCenter,
		Height:     models.StatusBarHeight,
		Padding:    PadXY(28, 0),
		Background: bg,
	},
		Text(chat.FormatTime(device.Time), Style{FontSize: 17, Bold: true, Color: black}),
		Box(Style{Grow: true}),
		&Node{Kind: KindBattery, Battery: models.ClampBattery(device.BatteryLevel), Style: Style{Width: 25, Height: 13}},
	).WithID("status-bar")
}

func (b *Builder) avatar(p models.Profile, size float64) *Node {
	initial := "?"
	if r, _ := utf8.DecodeRuneInString(strings.TrimSpace(p.Name)); r != utf8.RuneError {
		initial = strings.ToUpper(string(r))
	}

	var ref *ImageRef
	if p.Image != "" && b.Images != nil {
		ref = b.Images.Load(p.Image)
	}
	n := Image(ref, Style{
		Width:      size,
		Height:     size,
		Background: avatarBg,
		Radius:     Round(size / 2),
		Color:      white,
		FontSize:   size * 0.45,
		Bold:       true,
	})
	n.Text = initial
	return n.WithClass("avatar")
}

func spacer(width float64) *Node {
	return Box(Style{Width: width})
}

func (b *Builder) kakaoTalk(snap session.Snapshot) *Node {
	bg := Hex(models.KakaoBackground)

	header := Box(Style{
		Direction:    Row,
		Align:        AlignCenter,
		Padding:      PadXY(16, 12),
		MinHeight:    60,
		Background:   bg,
		BorderBottom: kakaoLine,
		Gap:          8,
	},
		Text("‹", Style{FontSize: 26, Color: Hex("#2C2C2C")}),
		Text(snap.Receiver.Name, Style{FontSize: 17, Bold: true, Color: black, Grow: true}),
	).WithID("header")

	area := Box(Style{Padding: PadXY(16, 12)}).WithID("messages")

	if snap.ShowDateBar && len(snap.Messages) > 0 {
		area.Children = append(area.Children, Box(Style{
			Direction: Row,
			Justify:   AlignCenter,
			Margin:    Edges{Bottom: 24},
		},
			Text(chat.FormatDisplayDate(snap.Date), Style{
				FontSize:   11,
				Color:      white,
				Background: RGBA(0, 0, 0, 0.15),
				Radius:     Round(12),
				Padding:    PadXY(12, 6),
			}),
		).WithID("date-bar"))
	}

	for _, g := range chat.GroupForKakaoTalk(snap.Messages) {
		area.Children = append(area.Children, b.kakaoGroup(g, snap))
	}

	return Box(Style{Background: bg},
		header,
		area,
		b.composer(snap, models.PlatformKakaoTalk),
		kakaoInputBar(),
	)
}

func (b *Builder) kakaoGroup(g models.MessageGroup, snap session.Snapshot) *Node {
	justify, align := AlignStart, AlignStart
	if g.Sender {
		justify, align = AlignEnd, AlignEnd
	}

	row := Box(Style{Direction: Row, Justify: justify, Align: AlignEnd, Margin: Edges{Bottom: 12}}).WithID(g.ID)
	if !g.Sender {
		if g.ShowProfile {
			av := b.avatar(snap.Receiver, 32)
			av.Style.Margin = Edges{Right: 8}
			row.Children = append(row.Children, av)
		} else {
			s := spacer(32)
			s.Style.Margin = Edges{Right: 8}
			row.Children = append(row.Children, s)
		}
	}

	col := Box(Style{Align: align, MaxWidthPct: 0.75})
	if !g.Sender && g.ShowProfile {
		col.Children = append(col.Children, Text(snap.Receiver.Name, Style{
			FontSize: 10,
			Color:    black,
			Margin:   Edges{Bottom: 4, Left: 8},
		}))
	}

	for i, m := range g.Messages {
		line := Box(Style{Direction: Row, Align: AlignEnd, Gap: 4})
		if i > 0 {
			line.Style.Margin = Edges{Top: 4}
		}
		stamp := m.ShowTime
		if g.Sender && stamp {
			line.Children = append(line.Children, timeLabel(m.Time))
		}

		radius := Round(18)
		fill := white
		if g.Sender {
			radius.TopRight = 6
			fill = Hex(models.KakaoYellow)
		} else {
			radius.TopLeft = 6
		}
		line.Children = append(line.Children, bubble(m, Style{
			Background: fill,
			Radius:     radius,
			Padding:    PadXY(12, 8),
			FontSize:   14,
			LineHeight: 1.4,
			Color:      black,
			MinHeight:  18,
		}))

		if !g.Sender && stamp {
			line.Children = append(line.Children, timeLabel(m.Time))
		}
		if snap.EditMode {
			line.Children = append(line.Children, deleteControl(m))
		}
		col.Children = append(col.Children, line)
	}

	row.Children = append(row.Children, col)
	return row
}

func timeLabel(clock string) *Node {
	return Text(chat.FormatTime(clock), Style{FontSize: 10, Color: timeGray, Margin: Edges{Bottom: 4}}).WithClass("time")
}

func bubble(m models.Message, style Style) *Node {
	return Text(m.Text, style).WithID(fmt.Sprintf("message-%d", m.ID)).WithClass("bubble")
}

func deleteControl(m models.Message) *Node {
	return Text("✕", Style{FontSize: 12, Color: white, Background: danger, Radius: Round(9), Padding: PadXY(5, 1)}).
		WithID(fmt.Sprintf("delete-%d", m.ID)).
		WithClass(ClassInlineControls, ClassEditMode)
}

// composer is the live input shown while editing. It never belongs in a
// screenshot.
func (b *Builder) composer(snap session.Snapshot, platform models.Platform) *Node {
	if !snap.EditMode {
		return nil
	}
	accent := Hex(models.KakaoYellow)
	if platform == models.PlatformInstagram {
		accent = Hex(models.InstagramBlue)
	}
	return Box(Style{Direction: Row, Align: AlignCenter, Gap: 8, Padding: PadXY(12, 8), Background: white},
		Text("나 ⇄ 상대", Style{FontSize: 12, Color: black, Background: accent, Radius: Round(10), Padding: PadXY(8, 4)}).
			WithClass(ClassInlineControls),
		Text("메시지 추가...", Style{FontSize: 14, Color: timeGray, Grow: true}),
	).WithID("composer").WithClass(ClassInteractiveInput).WithAttr(AttrHideInScreenshot, "true")
}

func kakaoInputBar() *Node {
	return Box(Style{
		Direction:  Row,
		Align:      AlignCenter,
		Gap:        8,
		Padding:    PadXY(12, 8),
		MinHeight:  56,
		Background: white,
		BorderTop:  RGBA(0, 0, 0, 0.1),
	},
		Text("+", Style{FontSize: 24, Color: Hex("#4B5563"), Padding: PadXY(8, 0)}),
		Text("메시지를 입력하세요", Style{
			Grow:       true,
			FontSize:   15,
			Color:      Hex("#6B7280"),
			Background: Hex("#F2F2F7"),
			Radius:     Round(22),
			Padding:    PadXY(16, 10),
			MinHeight:  36,
		}),
		Text("☺", Style{FontSize: 22, Color: Hex("#4B5563"), Padding: PadXY(8, 0)}),
	).WithID("input-bar")
}

func (b *Builder) instagram(snap session.Snapshot) *Node {
	dark := Hex(models.InstagramTextDark)
	gray := Hex(models.InstagramTextGray)

	header := Box(Style{
		Direction:    Row,
		Align:        AlignCenter,
		Gap:          12,
		Padding:      PadXY(16, 12),
		Background:   white,
		BorderBottom: Hex(models.InstagramBorder),
	},
		Text("‹", Style{FontSize: 26, Color: dark}),
		b.avatar(snap.Receiver, 32),
		Box(Style{Grow: true},
			Text(snap.Receiver.Name, Style{FontSize: 15, Bold: true, Color: dark}),
			Text("활동 중", Style{FontSize: 13, Color: gray}),
		),
	).WithID("header")

	area := Box(Style{Padding: Pad(20), Gap: 16}).WithID("messages")

	for _, g := range chat.GroupForInstagram(snap.Messages) {
		justify, align := AlignStart, AlignStart
		if g.Sender {
			justify, align = AlignEnd, AlignEnd
		}

		row := Box(Style{Direction: Row, Justify: justify, Align: AlignEnd, Gap: 8}).WithID(g.ID)
		if !g.Sender {
			if g.ShowProfile {
				row.Children = append(row.Children, b.avatar(snap.Receiver, 28))
			} else {
				row.Children = append(row.Children, spacer(28))
			}
		}

		col := Box(Style{Align: align, Gap: 4, MaxWidthPct: 0.8})
		for _, m := range g.Messages {
			fill, ink := Hex(models.InstagramGray), dark
			if g.Sender {
				fill, ink = Hex(models.InstagramBlue), white
			}
			item := Box(Style{Align: align},
				bubble(m, Style{
					Background: fill,
					Color:      ink,
					Radius:     Round(22),
					Padding:    PadXY(16, 8),
					FontSize:   14,
					LineHeight: 1.25,
					MaxWidth:   236,
				}),
			)
			if chat.IsLastDeliveredSenderMessage(m, snap.Messages) {
				item.Children = append(item.Children,
					Text("읽음", Style{FontSize: 10, Color: gray, Margin: Edges{Top: 4}}).WithID("read-receipt"))
			}
			if snap.EditMode {
				item.Children = append(item.Children, deleteControl(m))
			}
			col.Children = append(col.Children, item)
		}
		row.Children = append(row.Children, col)
		area.Children = append(area.Children, row)
	}

	input := Box(Style{
		Direction: Row,
		Align:     AlignCenter,
		Gap:       12,
		Padding:   PadXY(16, 12),
		MinHeight: 60,
		BorderTop: Hex(models.InstagramBorder),
	},
		Text("◎", Style{FontSize: 22, Color: dark}),
		Text("메시지 보내기...", Style{
			Grow:       true,
			FontSize:   14,
			Color:      gray,
			Background: Hex(models.InstagramGray),
			Radius:     Round(20),
			Padding:    PadXY(16, 8),
			MinHeight:  36,
		}),
	).WithID("input-bar")

	return Box(Style{Background: white},
		header,
		area,
		b.composer(snap, models.PlatformInstagram),
		input,
	)
}
