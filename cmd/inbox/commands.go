package main

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/language"

	"github.com/nugget/thane-inbox/internal/compose"
	"github.com/nugget/thane-inbox/internal/email"
	"github.com/nugget/thane-inbox/internal/identity"
	"github.com/nugget/thane-inbox/internal/inbox"
	"github.com/nugget/thane-inbox/internal/mailbox"
	"github.com/nugget/thane-inbox/internal/settings"
)

type command func(a *app, out *output, args []string) error

var commands = map[string]command{
	"folders":   runFolders,
	"list":      runList,
	"show":      runShow,
	"compose":   composeCommand(compose.ModeNew),
	"reply":     composeCommand(compose.ModeReply),
	"reply-all": composeCommand(compose.ModeReplyAll),
	"forward":   composeCommand(compose.ModeForward),
	"export":    runExport,
	"directory": runDirectory,
	"set":       runSet,
	"settings":  runSettings,
}

const dateFormat = "2006-01-02 15:04"

func runFolders(a *app, out *output, args []string) error {
	counts := a.store.Counts()
	if out.json() {
		return out.encode(counts)
	}
	for _, c := range counts {
		fmt.Fprintf(out.w, "%-7s %4d", c.Folder, c.Total)
		if c.Unread > 0 {
			fmt.Fprintf(out.w, "  (%d unread)", c.Unread)
		}
		fmt.Fprintln(out.w)
	}
	return nil
}

func runList(a *app, out *output, args []string) error {
	var folderArg string
	var words []string
	var narrow []mailbox.Filter
	for _, arg := range args {
		switch {
		case arg == "-unread":
			narrow = append(narrow, mailbox.Unread)
		case arg == "-starred":
			narrow = append(narrow, mailbox.Starred)
		case folderArg == "":
			folderArg = arg
		default:
			words = append(words, arg)
		}
	}
	if folderArg == "" {
		return fmt.Errorf("usage: inbox list <folder> [query] [-unread] [-starred]")
	}
	folder, err := mailbox.ParseFolder(strings.ToUpper(folderArg))
	if err != nil {
		return err
	}

	filter := mailbox.And(append(narrow, mailbox.TextFilter(a.dir, strings.Join(words, " "), a.logger))...)

	var msgs []mailbox.Message
	for m := range a.store.ListByFolder(folder, filter) {
		msgs = append(msgs, m)
	}
	if out.json() {
		if msgs == nil {
			msgs = []mailbox.Message{}
		}
		return out.encode(msgs)
	}

	for _, m := range msgs {
		fmt.Fprintf(out.w, "%s %-10s %s  %-20s %s\n",
			markers(m), m.ID, m.CreatedAt.Local().Format(dateFormat), truncate(a.name(m.FromID), 20), m.Subject)
	}
	if len(msgs) == 0 {
		fmt.Fprintln(out.w, "No messages.")
	}
	return nil
}

// markers is the status column of a listing: unread, starred,
// attachment, high priority.
func markers(m mailbox.Message) string {
	b := []byte("    ")
	if !m.IsRead {
		b[0] = '*'
	}
	if m.IsStarred {
		b[1] = 's'
	}
	if m.HasAttachment {
		b[2] = '@'
	}
	if m.Priority == mailbox.PriorityHigh {
		b[3] = '!'
	}
	return string(b)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func runShow(a *app, out *output, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: inbox show <id>")
	}
	if err := a.session.Select(args[0]); err != nil {
		return err
	}
	conv, _, err := a.session.Conversation()
	if err != nil {
		return err
	}
	if out.json() {
		return out.encode(conv)
	}

	m := conv.Message
	fmt.Fprintf(out.w, "From:     %s\n", participant(conv.From))
	fmt.Fprintf(out.w, "To:       %s\n", participants(conv.To))
	if len(conv.Cc) > 0 {
		fmt.Fprintf(out.w, "Cc:       %s\n", participants(conv.Cc))
	}
	fmt.Fprintf(out.w, "Date:     %s\n", m.CreatedAt.Local().Format(time.RFC1123))
	fmt.Fprintf(out.w, "Subject:  %s\n", m.Subject)
	fmt.Fprintf(out.w, "Folder:   %s\n", m.Folder)
	if m.Priority != "" && m.Priority != mailbox.PriorityNormal {
		fmt.Fprintf(out.w, "Priority: %s\n", m.Priority)
	}
	if len(m.Tags) > 0 {
		fmt.Fprintf(out.w, "Tags:     %s\n", strings.Join(m.Tags, ", "))
	}
	fmt.Fprintln(out.w)
	fmt.Fprintln(out.w, m.Body)
	return nil
}

func participant(p inbox.Participant) string {
	if !p.Known {
		return p.ID + " (unknown)"
	}
	return p.Name + " <" + p.Email + ">"
}

func participants(ps []inbox.Participant) string {
	s := make([]string, len(ps))
	for i, p := range ps {
		s[i] = participant(p)
	}
	return strings.Join(s, ", ")
}

// name returns a display name for id, falling back to the id itself.
func (a *app) name(id string) string {
	ident, found, err := a.dir.FindByID(id)
	if err != nil || !found || ident.DisplayName == "" {
		return id
	}
	return ident.DisplayName
}

// address returns "Name <email>" for id, or the id when unknown.
func (a *app) address(id string) string {
	ident, found, err := a.dir.FindByID(id)
	if err != nil || !found {
		return id
	}
	return ident.Address()
}

type composeOptions struct {
	to, cc, bcc []string
	subject     *string
	body        string
	priority    string
	tags        []string
	send        bool
}

func parseComposeArgs(args []string) (string, composeOptions, error) {
	var id string
	var opts composeOptions

	value := func(i int) (string, error) {
		if i+1 >= len(args) {
			return "", fmt.Errorf("flag %s needs a value", args[i])
		}
		return args[i+1], nil
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "-send":
			opts.send = true
			continue
		case "-to", "-cc", "-bcc", "-subject", "-body", "-priority", "-tag":
			v, err := value(i)
			if err != nil {
				return "", opts, err
			}
			i++
			switch arg {
			case "-to":
				opts.to = append(opts.to, v)
			case "-cc":
				opts.cc = append(opts.cc, v)
			case "-bcc":
				opts.bcc = append(opts.bcc, v)
			case "-subject":
				opts.subject = &v
			case "-body":
				opts.body = v
			case "-priority":
				opts.priority = v
			case "-tag":
				opts.tags = append(opts.tags, v)
			}
			continue
		}
		if strings.HasPrefix(arg, "-") {
			return "", opts, fmt.Errorf("unknown flag: %s", arg)
		}
		if id != "" {
			return "", opts, fmt.Errorf("unexpected argument: %s", arg)
		}
		id = arg
	}
	return id, opts, nil
}

func composeCommand(mode compose.Mode) command {
	return func(a *app, out *output, args []string) error {
		id, opts, err := parseComposeArgs(args)
		if err != nil {
			return err
		}

		req := compose.Request{Mode: mode}
		switch {
		case mode.NeedsSource() && id == "":
			return fmt.Errorf("usage: inbox %s <id> [compose flags]", out.command)
		case mode.NeedsSource():
			src, err := a.store.Get(id)
			if err != nil {
				return err
			}
			req.Source = &src
		case id != "":
			return fmt.Errorf("unexpected argument: %s", id)
		}

		if mode == compose.ModeNew && len(opts.to) > 0 {
			first, err := a.bestMatch(opts.to[0], nil)
			if err != nil {
				return err
			}
			req.Preselected = &first
			opts.to = opts.to[1:]
		}

		d, err := a.session.Open(req)
		if err != nil {
			return err
		}
		if err := a.applyOptions(d, opts); err != nil {
			a.session.Close()
			return err
		}

		if !opts.send {
			return a.printDraft(out, d)
		}

		msg, err := a.session.Send()
		if err != nil {
			return err
		}
		if out.json() {
			return out.encode(msg)
		}
		fmt.Fprintf(out.w, "Sent %s to %d recipient(s).\n", msg.ID, len(msg.ToIDs)+len(msg.CcIDs)+len(msg.BccIDs))
		return nil
	}
}

// bestMatch returns the top directory hit for query that is not
// already excluded.
func (a *app) bestMatch(query string, exclude []string) (identity.Identity, error) {
	hits, err := a.resolver.Search(query, exclude)
	if err != nil {
		return identity.Identity{}, err
	}
	if len(hits) == 0 {
		return identity.Identity{}, fmt.Errorf("no directory match for %q", query)
	}
	return hits[0], nil
}

func (a *app) applyOptions(d *compose.Draft, opts composeOptions) error {
	for _, field := range []struct {
		queries []string
		set     *compose.RecipientSet
		show    func()
	}{
		{opts.to, d.To, func() {}},
		{opts.cc, d.Cc, d.ShowCc},
		{opts.bcc, d.Bcc, d.ShowBcc},
	} {
		for _, q := range field.queries {
			ident, err := a.bestMatch(q, compose.Exclusions(d))
			if err != nil {
				return err
			}
			field.show()
			field.set.Add(ident)
		}
	}

	if opts.subject != nil {
		d.Subject = *opts.subject
	}
	if opts.body != "" {
		d.Body = opts.body + d.Body
	}
	if opts.priority != "" {
		p := mailbox.Priority(strings.ToUpper(opts.priority))
		if p == "" || !p.Valid() {
			return fmt.Errorf("unknown priority %q (valid: HIGH, NORMAL, LOW)", opts.priority)
		}
		d.Priority = p
	}
	for _, t := range opts.tags {
		d.AddTag(t)
	}
	return nil
}

type draftView struct {
	Mode     compose.Mode     `json:"mode"`
	SourceID string           `json:"source_id,omitempty"`
	Focus    inbox.Focus      `json:"focus"`
	To       []string         `json:"to"`
	Cc       []string         `json:"cc,omitempty"`
	Bcc      []string         `json:"bcc,omitempty"`
	Subject  string           `json:"subject"`
	Body     string           `json:"body"`
	Priority mailbox.Priority `json:"priority"`
	Tags     []string         `json:"tags,omitempty"`
}

func (a *app) printDraft(out *output, d *compose.Draft) error {
	if out.json() {
		return out.encode(draftView{
			Mode:     d.Mode,
			SourceID: d.SourceID,
			Focus:    a.session.FocusTarget(d.Mode),
			To:       d.To.IDs(),
			Cc:       d.Cc.IDs(),
			Bcc:      d.Bcc.IDs(),
			Subject:  d.Subject,
			Body:     d.Body,
			Priority: d.Priority,
			Tags:     d.Tags,
		})
	}

	addrs := func(ids []string) string {
		s := make([]string, len(ids))
		for i, id := range ids {
			s[i] = a.address(id)
		}
		return strings.Join(s, ", ")
	}

	fmt.Fprintf(out.w, "Mode:     %s", d.Mode)
	if d.SourceID != "" {
		fmt.Fprintf(out.w, " (of %s)", d.SourceID)
	}
	fmt.Fprintf(out.w, ", focus %s\n", a.session.FocusTarget(d.Mode))
	fmt.Fprintf(out.w, "To:       %s\n", addrs(d.To.IDs()))
	if d.CcVisible {
		fmt.Fprintf(out.w, "Cc:       %s\n", addrs(d.Cc.IDs()))
	}
	if d.BccVisible {
		fmt.Fprintf(out.w, "Bcc:      %s\n", addrs(d.Bcc.IDs()))
	}
	fmt.Fprintf(out.w, "Subject:  %s\n", d.Subject)
	fmt.Fprintf(out.w, "Priority: %s\n", d.Priority)
	if len(d.Tags) > 0 {
		fmt.Fprintf(out.w, "Tags:     %s\n", strings.Join(d.Tags, ", "))
	}
	fmt.Fprintln(out.w)
	fmt.Fprintln(out.w, d.Body)
	return nil
}

type exportView struct {
	Mailbox    string   `json:"mailbox"`
	SpecialUse string   `json:"special_use,omitempty"`
	Flags      []string `json:"flags"`
	Raw        string   `json:"raw"`
}

func runExport(a *app, out *output, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: inbox export <id>")
	}
	msg, err := a.store.Get(args[0])
	if err != nil {
		return err
	}
	exp, err := email.NewExport(msg, a.dir)
	if err != nil {
		return fmt.Errorf("export %s: %w", msg.ID, err)
	}

	if out.json() {
		flags := make([]string, len(exp.Flags))
		for i, f := range exp.Flags {
			flags[i] = string(f)
		}
		return out.encode(exportView{
			Mailbox:    exp.Mailbox,
			SpecialUse: string(exp.SpecialUse),
			Flags:      flags,
			Raw:        string(exp.Raw),
		})
	}
	_, err = out.w.Write(exp.Raw)
	return err
}

func runDirectory(a *app, out *output, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: inbox directory search <text> | import <file.vcf>")
	}

	switch args[0] {
	case "search":
		hits, err := a.dir.Search(strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		if out.json() {
			if hits == nil {
				hits = []identity.Identity{}
			}
			return out.encode(hits)
		}
		for _, h := range hits {
			fmt.Fprintf(out.w, "%-10s %s", h.ID, h.Address())
			if h.Department != "" {
				fmt.Fprintf(out.w, "  [%s]", h.Department)
			}
			if h.Presence != "" {
				fmt.Fprintf(out.w, "  %s", h.Presence)
			}
			fmt.Fprintln(out.w)
		}
		if len(hits) == 0 {
			fmt.Fprintln(out.w, "No matches.")
		}
		return nil

	case "import":
		n, err := a.importVCards(args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(out.w, "Imported %d identities.\n", n)
		return nil
	}
	return fmt.Errorf("unknown directory command: %s", args[0])
}

// splitSettingKey accepts "namespace.key" or a bare key in the compose
// namespace.
func splitSettingKey(s string) (string, string) {
	if ns, key, ok := strings.Cut(s, "."); ok {
		return ns, key
	}
	return settings.NamespaceCompose, s
}

func runSet(a *app, out *output, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: inbox set <key> <value>")
	}
	ns, key := splitSettingKey(args[0])
	value := args[1]

	if ns == settings.NamespaceCompose && key == settings.KeyLocale {
		if _, err := language.Parse(value); err != nil {
			return fmt.Errorf("locale %q: %w", value, err)
		}
	}
	if err := a.settings.Set(ns, key, value); err != nil {
		return err
	}
	fmt.Fprintf(out.w, "%s.%s = %s\n", ns, key, value)
	return nil
}

func runSettings(a *app, out *output, args []string) error {
	ns := settings.NamespaceCompose
	if len(args) > 0 {
		ns = args[0]
	}
	values, err := a.settings.List(ns)
	if err != nil {
		return err
	}
	if out.json() {
		return out.encode(values)
	}
	for _, k := range slices.Sorted(maps.Keys(values)) {
		fmt.Fprintf(out.w, "%s.%s = %s\n", ns, k, values[k])
	}
	return nil
}
