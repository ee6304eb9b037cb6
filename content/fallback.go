package content

// HeaderGroup is a run of blocks grouped under one detected header. It is
// the fallback segmentation for books without a usable navigation document:
// every header starts a new group and owns the blocks up to the next one.
type HeaderGroup struct {
	Title  string
	Blocks []Block
	Images []string
}

// GroupByHeaders splits a block sequence at header blocks. Blocks preceding
// the first header form a group titled fallbackTitle (conventionally
// "Intro"). Each group's Images aggregates its blocks' images, deduplicated
// in encounter order.
func GroupByHeaders(blocks []Block, fallbackTitle string) []HeaderGroup {
	if len(blocks) == 0 {
		return nil
	}

	var groups []HeaderGroup
	current := HeaderGroup{}

	flush := func() {
		if current.Title == "" && len(current.Blocks) == 0 {
			return
		}
		if current.Title == "" {
			current.Title = fallbackTitle
		}
		current.Images = dedupe(current.Images)
		groups = append(groups, current)
	}

	for _, b := range blocks {
		if b.IsHeader {
			flush()
			current = HeaderGroup{Title: b.Text, Blocks: []Block{b}, Images: append([]string(nil), b.Images...)}
			continue
		}
		current.Blocks = append(current.Blocks, b)
		current.Images = append(current.Images, b.Images...)
	}
	flush()

	return groups
}

func dedupe(paths []string) []string {
	if len(paths) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
