package conn

// TxOptions carries the per-request metadata Run/Begin attach to the wire
// message's extra field (spec.md §4.4, §6): access mode, bookmarks to wait
// on, caller-supplied transaction metadata, and a timeout in seconds.
type TxOptions struct {
	Mode           string // "", "r" (read) or "w" (write)
	Bookmarks      []string
	Metadata       map[string]any
	TimeoutSeconds float64
}

// buildExtra renders TxOptions into the wire-level extra map a >=v3 RUN or
// BEGIN message sends as its trailing structure field. Zero-valued fields
// are omitted rather than sent as empty/zero, matching the original
// driver's "only send what was actually set" behavior.
func buildExtra(opts TxOptions) map[string]any {
	extra := map[string]any{}
	if len(opts.Bookmarks) > 0 {
		extra["bookmarks"] = toAnySlice(opts.Bookmarks)
	}
	if opts.TimeoutSeconds > 0 {
		extra["tx_timeout"] = int64(opts.TimeoutSeconds * 1000)
	}
	if len(opts.Metadata) > 0 {
		extra["tx_metadata"] = opts.Metadata
	}
	if opts.Mode == "r" {
		extra["mode"] = "r"
	}
	return extra
}

func toAnySlice(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
