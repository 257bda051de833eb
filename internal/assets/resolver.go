// Package assets derives image and audio identifiers and paths for a
// position in a manual.
package assets

import (
	"fmt"
	"path"

	"github.com/ziadkadry99/manualview/internal/manual"
)

// ID is an asset identifier. Two views refer to the same asset exactly when
// their IDs are equal; rendered URLs are never compared.
type ID string

// None is the absent asset.
const None ID = ""

// Naming selects how step assets are named on disk.
type Naming string

const (
	// NamingByID uses each step's own stable id.
	NamingByID Naming = "id"
	// NamingByTemplate uses {tabKey}_step_{NN}, counting from 01.
	NamingByTemplate Naming = "template"
)

// View is the pair of assets for one (tab, step) position.
type View struct {
	Image ID
	Audio ID
}

// Resolver maps positions to asset identifiers and identifiers to paths.
type Resolver struct {
	Naming    Naming
	ImageBase string // e.g. "/manual_images"
	AudioBase string // e.g. "/manual_audio"
	ImageExt  string // e.g. ".png"
	AudioExt  string // e.g. ".wav"
}

// DefaultResolver matches the layout served by the API server.
func DefaultResolver() Resolver {
	return Resolver{
		Naming:    NamingByID,
		ImageBase: "/manual_images",
		AudioBase: "/manual_audio",
		ImageExt:  ".png",
		AudioExt:  ".wav",
	}
}

// Resolve returns the assets for the given tab at step index step.
func (r Resolver) Resolve(tab manual.Tab, step int) View {
	switch c := tab.Content.(type) {
	case manual.StepsContent:
		if step < 0 || step >= len(c.Steps) {
			return View{}
		}
		id := ID(c.Steps[step].ID)
		if r.Naming == NamingByTemplate || id == None {
			id = StepTemplate(tab.Key, step)
		}
		return View{Image: id, Audio: id}

	case manual.TextContent:
		return View{Audio: ID(tab.Key + "_main")}

	case manual.ListContent:
		// One clip for the whole list, never per item.
		if len(c.Items) == 0 {
			return View{}
		}
		id := ID(c.Items[0].ID)
		if r.Naming == NamingByTemplate || id == None {
			id = ID(fmt.Sprintf("%s_item_%02d", tab.Key, 1))
		}
		return View{Audio: id}
	}
	return View{}
}

// StepTemplate returns the template-derived id of step index i (zero-based).
func StepTemplate(tabKey string, i int) ID {
	return ID(fmt.Sprintf("%s_step_%02d", tabKey, i+1))
}

// ImagePath returns the path of the image asset, or "" for None.
func (r Resolver) ImagePath(id ID) string {
	if id == None {
		return ""
	}
	return path.Join(r.ImageBase, string(id)+r.ImageExt)
}

// AudioPath returns the path of the audio asset, or "" for None.
func (r Resolver) AudioPath(id ID) string {
	if id == None {
		return ""
	}
	return path.Join(r.AudioBase, string(id)+r.AudioExt)
}
