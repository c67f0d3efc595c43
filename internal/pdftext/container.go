// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdftext

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/pdiddy/confplan/internal/container"
	"github.com/pdiddy/confplan/pkg/types"
)

// pdftotextArgs reads the PDF on stdin and writes layout text to stdout.
var pdftotextArgs = []string{"pdftotext", "-layout", "-enc", "UTF-8", "-", "-"}

// ContainerSource runs pdftotext from Image through docker or podman.
type ContainerSource struct {
	Image string

	// Runtime is detected on first use when nil.
	Runtime container.Runtime
}

func (c *ContainerSource) Name() string { return "container" }

func (c *ContainerSource) Pages(ctx context.Context, path string) (Document, error) {
	image := c.Image
	if image == "" {
		image = types.DefaultContainerImage
	}
	if c.Runtime == nil {
		rt, err := container.Detect(ctx)
		if err != nil {
			return Document{}, err
		}
		c.Runtime = rt
	}
	if err := c.Runtime.ImageExists(ctx, image); err != nil {
		return Document{}, fmt.Errorf("%w (pull it with: %s pull %s)", err, c.Runtime.Name(), image)
	}

	in, err := os.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer in.Close()

	var out bytes.Buffer
	if err := c.Runtime.Run(ctx, image, pdftotextArgs, in, &out); err != nil {
		return Document{}, fmt.Errorf("extracting %s: %w", path, err)
	}
	return Document{Pages: SplitPages(out.String())}, nil
}
