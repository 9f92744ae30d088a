package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// StreamDigest is the content digest of one elementary stream.
type StreamDigest struct {
	Index  int
	Type   string
	Digest string
}

// StreamHashes computes a per-elementary-stream MD5 over the coded
// bitstream of every stream in path. The digests are insensitive to
// container framing, so they are stable across a copy-only remux.
func (c *Client) StreamHashes(ctx context.Context, path string) ([]StreamDigest, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("ffmpeg streamhash: empty path")
	}
	args := []string{
		"-nostdin", "-loglevel", "error",
		"-i", path,
		"-map", "0",
		"-c", "copy",
		"-f", "streamhash", "-hash", "md5",
		"-",
	}

	var digests []StreamDigest
	err := c.exec.Run(ctx, c.binary, args, func(line string) {
		if digest, ok := parseStreamHashLine(line); ok {
			digests = append(digests, digest)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("ffmpeg streamhash: %w", err)
	}
	if len(digests) == 0 {
		return nil, errors.New("ffmpeg streamhash: no digests reported")
	}
	return digests, nil
}

// parseStreamHashLine parses one "index,type,MD5=digest" line from the
// streamhash muxer.
func parseStreamHashLine(line string) (StreamDigest, bool) {
	parts := strings.SplitN(strings.TrimSpace(line), ",", 3)
	if len(parts) != 3 {
		return StreamDigest{}, false
	}
	index, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return StreamDigest{}, false
	}
	hash := strings.TrimSpace(parts[2])
	cut := strings.IndexByte(hash, '=')
	if cut < 0 {
		return StreamDigest{}, false
	}
	digest := strings.TrimSpace(hash[cut+1:])
	if digest == "" {
		return StreamDigest{}, false
	}
	return StreamDigest{
		Index:  index,
		Type:   strings.TrimSpace(parts[1]),
		Digest: digest,
	}, true
}
