package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"adventkeeper/internal/blobcodec"
	"adventkeeper/internal/calendar"
	"adventkeeper/internal/engine"
	"adventkeeper/internal/fileproc"
)

func (a *App) execute(ctx context.Context, fields []string) error {
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "help":
		a.printHelp()
		return nil
	case "show":
		return a.cmdShow(ctx)
	case "day":
		return a.cmdDay(ctx, args)
	case "load":
		return a.cmdLoad(ctx)
	case "meta":
		return a.cmdMeta(args)
	case "days":
		return a.cmdDays(args)
	case "text":
		return a.cmdText(args)
	case "file":
		return a.cmdFile(ctx, args)
	case "url":
		return a.cmdURL(args)
	case "save":
		return a.cmdSave(ctx)
	case "clear":
		return a.cmdClear(ctx)
	case "export":
		return a.cmdExport(ctx, args)
	case "import":
		return a.cmdImport(ctx, args)
	case "quota":
		return a.cmdQuota(ctx)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (a *App) printHelp() {
	fmt.Fprintln(a.out, `Commands:
  show                         print the calendar
  day <n> [force]              open a day (force skips the unlock schedule)
  load                         re-read the saved calendar
  meta <from> <to>             set sender and recipient
  days <7|15|25>               set the day count
  text <day> <content...>      set a text day
  file <day> <image|video> <path>   attach an uploaded file
  url <day> <image|video> <url>     attach a remote URL
  save                         persist the calendar
  clear                        delete everything
  export <path>                write a shareable document
  import <path>                read a shared document and persist it
  quota                        show storage usage
  exit`)
}

func (a *App) cmdShow(ctx context.Context) error {
	fmt.Fprintf(a.out, "From: %s  To: %s  Created: %s\n", a.cal.CreatedBy, a.cal.To, a.cal.CreatedAt)

	last, err := a.store.LastSavedAt(ctx)
	if err == nil && !last.IsZero() {
		fmt.Fprintf(a.out, "Last saved: %s\n", last.Format(time.RFC3339))
	}

	for _, d := range a.cal.Days {
		state := "empty"
		switch {
		case blobcodec.IsEmbedded(d.Content):
			state = fmt.Sprintf("%s upload (%d KB)", d.Type, d.FileSize/1024)
		case blobcodec.IsMediaRef(d.Content):
			state = fmt.Sprintf("%s (unresolved media)", d.Type)
		case strings.TrimSpace(d.Content) != "":
			if d.Source == calendar.SourceURL {
				state = fmt.Sprintf("%s url: %s", d.Type, d.Content)
			} else {
				state = "text: " + d.Content
			}
		}
		fmt.Fprintf(a.out, "  day %2d  %s\n", d.Day, state)
	}
	return nil
}

// cmdDay opens one day's viewer: the unlock schedule gates access, then the
// content is turned into something renderable through the media resolver.
func (a *App) cmdDay(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 || (len(args) == 2 && args[1] != "force") {
		return fmt.Errorf("usage: day <n> [force]")
	}
	day, err := a.parseDay(args[0])
	if err != nil {
		return err
	}
	force := len(args) == 2

	now := a.now()
	if !calendar.IsDayUnlocked(day, now, force) {
		next := calendar.NextUnlockTime(now)
		if next.IsZero() {
			fmt.Fprintf(a.out, "Day %d is locked\n", day)
		} else {
			fmt.Fprintf(a.out, "Day %d is locked until %s\n", day, next.Format("2 January"))
		}
		return nil
	}

	d := a.cal.GetDay(day)
	if d.Title != "" {
		fmt.Fprintln(a.out, d.Title)
	}

	switch {
	case strings.TrimSpace(d.Content) == "":
		fmt.Fprintf(a.out, "Day %d is empty\n", day)
	case d.Type == calendar.ContentTypeText:
		fmt.Fprintln(a.out, d.Content)
	case d.Source == calendar.SourceURL:
		loc, err := a.resolver.Resolve(ctx, d.Content)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "%s: %s\n", d.Type, loc)
	default:
		// Uploaded media lives in the saved media record; stage it into a
		// viewable file.
		loc, err := a.resolver.Resolve(ctx, engine.MediaPath(day))
		if err != nil {
			return err
		}
		if strings.HasPrefix(loc, "file://") {
			fmt.Fprintf(a.out, "%s staged at %s\n", d.Type, loc)
		} else {
			fmt.Fprintf(a.out, "%s not staged yet; save the calendar first\n", d.Type)
		}
	}
	return nil
}

// cmdLoad replaces the in-memory calendar with the saved one. Staged media
// locators may point at replaced records, so the cache is drained first.
func (a *App) cmdLoad(ctx context.Context) error {
	loaded, err := a.store.LoadCalendar(ctx)
	if err != nil {
		return err
	}
	if loaded == nil {
		fmt.Fprintln(a.out, "Nothing saved yet")
		return nil
	}

	a.resolver.RevokeAll()
	a.cal = loaded
	fmt.Fprintf(a.out, "Loaded calendar: %d days, %d completed\n",
		len(a.cal.Days), a.cal.CompletedDays())
	return nil
}

func (a *App) cmdMeta(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: meta <from> <to>")
	}
	a.cal.CreatedBy = args[0]
	a.cal.To = args[1]
	return nil
}

func (a *App) cmdDays(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: days <7|15|25>")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("bad day count %q", args[0])
	}

	allowed := false
	for _, c := range calendar.AllowedDayCounts {
		if n == c {
			allowed = true
		}
	}
	if !allowed {
		return fmt.Errorf("day count must be one of %v", calendar.AllowedDayCounts)
	}

	a.cal.SetDayCount(n)
	return nil
}

func (a *App) parseDay(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || a.cal.GetDay(n) == nil {
		return 0, fmt.Errorf("no such day %q", s)
	}
	return n, nil
}

func (a *App) cmdText(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: text <day> <content...>")
	}
	day, err := a.parseDay(args[0])
	if err != nil {
		return err
	}

	d := a.cal.GetDay(day)
	a.cal.SetDay(calendar.Day{
		Day:     day,
		Type:    calendar.ContentTypeText,
		Source:  calendar.SourceUpload,
		Content: strings.Join(args[1:], " "),
		Title:   d.Title,
	})
	return nil
}

func (a *App) cmdFile(ctx context.Context, args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("usage: file <day> <image|video> <path>")
	}
	day, err := a.parseDay(args[0])
	if err != nil {
		return err
	}
	typ := calendar.ContentType(args[1])
	if typ != calendar.ContentTypeImage && typ != calendar.ContentTypeVideo {
		return fmt.Errorf("type must be image or video")
	}

	data, err := os.ReadFile(args[2])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[2], err)
	}

	d, err := a.processor.ProcessMediaFile(ctx, args[2], data, typ)
	if err != nil {
		return err
	}
	d.Day = day
	d.Title = a.cal.GetDay(day).Title
	a.cal.SetDay(*d)
	return nil
}

func (a *App) cmdURL(args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("usage: url <day> <image|video> <url>")
	}
	day, err := a.parseDay(args[0])
	if err != nil {
		return err
	}
	typ := calendar.ContentType(args[1])
	if !fileproc.ValidateURL(args[2], typ) {
		return fmt.Errorf("%q does not look like a valid %s URL", args[2], typ)
	}

	a.cal.SetDay(calendar.Day{
		Day:     day,
		Type:    typ,
		Source:  calendar.SourceURL,
		Content: args[2],
		Title:   a.cal.GetDay(day).Title,
	})
	return nil
}

func (a *App) cmdSave(ctx context.Context) error {
	if !a.cal.IsValid() {
		return fmt.Errorf("calendar needs a sender, a recipient and at least one filled day")
	}

	check, err := a.store.CanSave(ctx, a.cal)
	if err != nil {
		return err
	}
	if !check.CanSave {
		return fmt.Errorf("calendar size (%.2fMB) exceeds the %dMB limit", check.EstimatedSizeMB, check.MaxSizeMB)
	}

	if err := a.store.SaveCalendar(ctx, a.cal); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Saved (%.2fMB)\n", check.EstimatedSizeMB)
	return nil
}

func (a *App) cmdClear(ctx context.Context) error {
	if err := a.store.ClearCalendar(ctx); err != nil {
		return err
	}
	a.resolver.RevokeAll()
	a.cal = calendar.New(25)
	fmt.Fprintln(a.out, "Cleared")
	return nil
}

func (a *App) cmdExport(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: export <path>")
	}

	cal, err := a.store.ExportCalendar(ctx)
	if err != nil {
		return err
	}
	if cal == nil {
		return fmt.Errorf("nothing saved yet")
	}

	if err := fileproc.WriteExport(args[0], cal); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Exported to %s\n", args[0])
	return nil
}

func (a *App) cmdImport(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: import <path>")
	}

	cal, err := fileproc.ReadExport(args[0])
	if err != nil {
		return err
	}

	if err := a.store.ImportCalendar(ctx, cal); err != nil {
		return err
	}
	a.cal = cal
	fmt.Fprintf(a.out, "Imported %d days\n", len(cal.Days))
	return nil
}

func (a *App) cmdQuota(ctx context.Context) error {
	q, err := a.store.StorageQuota(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Usage: %.2fMB of %dMB\n", float64(q.Usage)/1024/1024, q.Quota/1024/1024)
	return nil
}
