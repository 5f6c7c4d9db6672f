package client

import (
	"context"
	"fmt"
	"net/http"
)

// TxNote is a shared note attached to a wallet transaction. The body is
// stored encrypted under the shared key; EditedBy identifies the copayer of
// the last edit.
type TxNote struct {
	TxId     string `json:"txid"`
	Body     string `json:"body"`
	EditedBy string `json:"editedBy"`
	EditedOn int64  `json:"editedOn"`
}

// GetTxNote fetches the note attached to the given transaction, decrypted
// for display.
func (c *Client) GetTxNote(ctx context.Context, txid string) (*TxNote, error) {
	path := fmt.Sprintf("/v1/txnotes/%s/", txid)
	note := &TxNote{}
	if err := c.do(ctx, http.MethodGet, path, nil, note); err != nil {
		return nil, err
	}
	if len(note.Body) > 0 {
		note.Body = c.DecryptMessage(note.Body)
	}
	return note, nil
}

type editTxNoteRequest struct {
	Body string `json:"body"`
}

// EditTxNote stores a note on the given transaction, encrypted under the
// shared key.
func (c *Client) EditTxNote(ctx context.Context, txid, body string) error {
	encBody, err := c.encryptField(body)
	if err != nil {
		return err
	}
	path := fmt.Sprintf("/v1/txnotes/%s/", txid)
	return c.do(ctx, http.MethodPut, path, editTxNoteRequest{
		Body: encBody,
	}, nil)
}
