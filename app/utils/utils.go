package utils

import (
	"fmt"

	"github.com/xlab/treeprint"

	"DocChatAI/app/storage"
)

// Truncate cuts s to at most limit runes, appending "..." when anything
// was dropped.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

// BuildSessionTree renders the upload ledger as a text tree, marking
// which collections are currently registered for chat.
func BuildSessionTree(uploads []storage.Upload, registered map[string]bool) string {
	tree := treeprint.New()
	tree.SetValue("sessions")

	for _, u := range uploads {
		status := "not ready"
		if registered[u.CollectionID] {
			status = "ready"
		}
		branch := tree.AddMetaBranch(status, u.CollectionID)
		branch.AddNode(fmt.Sprintf("file: %s", u.Filename))
		branch.AddNode(fmt.Sprintf("chunks: %d", u.ChunkCount))
		if !u.CreatedAt.IsZero() {
			branch.AddNode(fmt.Sprintf("uploaded: %s", u.CreatedAt.Format("2006-01-02 15:04:05")))
		}
	}

	return tree.String()
}
