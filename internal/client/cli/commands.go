package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/twosync/internal/client/models"
	"github.com/dmitrijs2005/twosync/internal/client/services"
	"github.com/dmitrijs2005/twosync/internal/common"
)

// twosCredentials loads the Twos user ID and token or explains how to set them.
func (a *App) twosCredentials(ctx context.Context) (services.Credentials, error) {
	c, err := a.creds.Load(ctx)
	if err != nil {
		return c, err
	}
	if !c.HasTwos() {
		return c, fmt.Errorf("%w; run `twosync credentials` first", common.ErrMissingCredentials)
	}
	return c, nil
}

// Sync replaces the local cache with a fresh export.
func (a *App) Sync(ctx context.Context) error {
	c, err := a.twosCredentials(ctx)
	if err != nil {
		return err
	}

	res, err := a.cache.ReplaceAll(ctx, c.TwosUserID, c.TwosToken)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Synced %d entries, %d posts\n", res.Entries, res.Posts)
	return nil
}

// List prints every cached entry.
func (a *App) List(ctx context.Context) error {
	tasks, err := a.cache.GetAll(ctx)
	if err != nil {
		return err
	}
	a.printTasks(tasks)
	return nil
}

// Show prints one entry with its posts.
func (a *App) Show(ctx context.Context, id string) error {
	task, err := a.cache.GetByID(ctx, id)
	if errors.Is(err, common.ErrNotFound) {
		fmt.Fprintf(a.out, "Entry %s not found\n", id)
		return err
	}
	if err != nil {
		return err
	}
	a.printTask(*task)
	return nil
}

// Search prints the entries matching query.
func (a *App) Search(ctx context.Context, query string) error {
	tasks, err := a.cache.Search(ctx, query)
	if err != nil {
		return err
	}
	a.printTasks(tasks)
	return nil
}

// Index rebuilds the hosted vector store and assistant.
func (a *App) Index(ctx context.Context) error {
	c, err := a.twosCredentials(ctx)
	if err != nil {
		return err
	}

	res, err := a.index.Sync(ctx, c.TwosUserID, c.TwosToken)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Indexed %d chunks (%d files)\n", res.ChunksProcessed, len(res.FileIDs))
	fmt.Fprintf(a.out, "Vector store: %s\n", res.VectorStoreID)
	fmt.Fprintf(a.out, "Assistant:    %s\n", res.AssistantID)
	return nil
}

// Assistant creates a new assistant over the current vector store.
func (a *App) Assistant(ctx context.Context) error {
	asst, err := a.index.CreateAssistant(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Assistant %s (%s, %s)\n", asst.ID, asst.Name, asst.Model)
	return nil
}

// Thread starts a conversation seeded with message.
func (a *App) Thread(ctx context.Context, message string) error {
	th, err := a.index.CreateThread(ctx, message)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Thread %s\n", th.ID)
	return nil
}

// Credentials prompts for the three secrets. An empty answer keeps the
// stored value.
func (a *App) Credentials(ctx context.Context) error {
	cur, err := a.creds.Load(ctx)
	if err != nil {
		return err
	}

	userID, err := GetSimpleText(a.reader, "Twos user ID"+hint(cur.TwosUserID), a.out)
	if err != nil {
		return err
	}
	token, err := GetSecret(a.out, "Twos token"+hint(cur.TwosToken))
	if err != nil {
		return err
	}
	key, err := GetSecret(a.out, "OpenAI API key"+hint(cur.OpenAIKey))
	if err != nil {
		return err
	}

	next := services.Credentials{
		OpenAIKey:  keep(string(key), cur.OpenAIKey),
		TwosUserID: keep(userID, cur.TwosUserID),
		TwosToken:  keep(string(token), cur.TwosToken),
	}
	if err := a.creds.Save(ctx, next); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Credentials saved")
	return nil
}

// ClearCredentials removes every stored secret.
func (a *App) ClearCredentials(ctx context.Context) error {
	if err := a.creds.Clear(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Credentials cleared")
	return nil
}

// Status prints the pipeline states and the stored resource IDs.
func (a *App) Status(ctx context.Context) error {
	meta, err := a.metadata().List(ctx)
	if err != nil {
		return err
	}
	c, err := a.creds.Load(ctx)
	if err != nil {
		return err
	}
	nEntries, nPosts, err := a.cache.Counts(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Cache sync:   %s\n", a.cache.Status().Get())
	fmt.Fprintf(a.out, "Index sync:   %s\n", a.index.Status().Get())
	fmt.Fprintf(a.out, "Cached:       %d entries, %d posts\n", nEntries, nPosts)
	fmt.Fprintf(a.out, "Twos login:   %s\n", yesNo(c.HasTwos()))
	fmt.Fprintf(a.out, "OpenAI key:   %s\n", yesNo(c.OpenAIKey != ""))
	fmt.Fprintf(a.out, "Vector store: %s\n", orDash(meta[common.KeyVectorStoreID]))
	fmt.Fprintf(a.out, "Assistant:    %s\n", orDash(meta[common.KeyAssistantID]))
	return nil
}

func (a *App) printTasks(tasks []models.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(a.out, "No entries")
		return
	}
	for _, t := range tasks {
		fmt.Fprintf(a.out, "%s  %s (%d posts)\n", t.ID, t.Title, len(t.Posts))
	}
}

func (a *App) printTask(t models.Task) {
	fmt.Fprintf(a.out, "%s\n", t.Title)
	if !t.LastModified.IsZero() {
		fmt.Fprintf(a.out, "modified %s\n", t.LastModified.Format("2006-01-02 15:04"))
	}
	for _, p := range t.Posts {
		line := "  - " + p.Text
		if len(p.Tags) > 0 {
			line += " [" + strings.Join(p.Tags, ", ") + "]"
		}
		if p.URL != "" {
			line += " " + p.URL
		}
		fmt.Fprintln(a.out, line)
	}
}

func hint(current string) string {
	if current == "" {
		return ""
	}
	return " (leave empty to keep the current one)"
}

func keep(v, current string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return current
}

func yesNo(b bool) string {
	if b {
		return "set"
	}
	return "not set"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
