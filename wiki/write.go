package wiki

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/url"
	"strconv"
)

// Patrol marks a revision or recent change as patrolled. It logs in first
// when the session is anonymous.
func (c *Client) Patrol(ctx context.Context, params url.Values) (map[string]any, error) {
	params = ensureParams(params)
	params.Set("action", "patrol")
	resp, err := c.Post(ctx, params)
	if err != nil {
		return nil, err
	}
	return getMap(resp["patrol"]), nil
}

// Upload posts action=upload and returns the response's upload object
func (c *Client) Upload(ctx context.Context, params url.Values, files ...File) (map[string]any, error) {
	params = ensureParams(params)
	params.Set("action", "upload")

	resp, err := c.PostFiles(ctx, params, files)
	if err != nil {
		return nil, err
	}
	upload := getMap(resp["upload"])
	if upload == nil {
		return nil, &ProtocolError{Reason: "upload response without upload object", Response: resp}
	}
	return upload, nil
}

// UploadFile uploads the contents of r as filename in one request
func (c *Client) UploadFile(ctx context.Context, filename string, r io.Reader, params url.Values) (map[string]any, error) {
	params = ensureParams(params)
	params.Set("filename", filename)
	return c.Upload(ctx, params, File{Field: "file", Name: filename, Reader: r})
}

// UploadChunks uploads a file in pieces to the stash and then publishes it
// as filename with params (comment, text, ...). filesize is the total size
// of all chunks. The offset and filekey of each step come from the
// server's previous answer.
func (c *Client) UploadChunks(ctx context.Context, filename string, filesize int64, chunks iter.Seq[io.Reader], ignoreWarnings bool, params url.Values) (map[string]any, error) {
	var upload map[string]any
	for chunk := range chunks {
		chunkParams := url.Values{
			"stash":    {"1"},
			"filename": {filename},
			"filesize": {strconv.FormatInt(filesize, 10)},
			"offset":   {"0"},
		}
		if upload != nil {
			chunkParams.Set("offset", formValue(upload["offset"]))
			chunkParams.Set("filekey", getString(upload["filekey"]))
		}
		if ignoreWarnings {
			chunkParams.Set("ignorewarnings", "1")
		}

		var err error
		upload, err = c.Upload(ctx, chunkParams, File{Field: "chunk", Name: filename, Reader: chunk})
		if err != nil {
			return nil, fmt.Errorf("chunk upload failed at offset %s: %w", chunkParams.Get("offset"), err)
		}
		c.logger.Debug("chunk uploaded",
			"filename", filename,
			"result", upload["result"],
			"offset", upload["offset"],
		)
	}
	if upload == nil {
		return nil, errors.New("no chunks to upload")
	}

	params = ensureParams(params)
	params.Set("filename", filename)
	params.Set("filekey", getString(upload["filekey"]))
	if ignoreWarnings {
		params.Set("ignorewarnings", "1")
	}
	return c.Upload(ctx, params)
}
