package epubtext

import "strings"

// extractBookInfo converts the raw OPF metadata into BookInfo.
// ePub 3 refinements (<meta refines="#id" property="role">) are honoured
// when deciding which creators are authors.
func extractBookInfo(pkg *opfPackage) BookInfo {
	info := BookInfo{Version: pkg.Version}
	om := &pkg.Metadata

	for _, t := range om.Titles {
		if v := strings.TrimSpace(t.Value); v != "" {
			info.Title = v
			break
		}
	}

	roles := make(map[string]string)
	for _, m := range om.Metas {
		if m.Property == "role" && strings.HasPrefix(m.Refines, "#") {
			roles[strings.TrimPrefix(m.Refines, "#")] = strings.TrimSpace(m.Value)
		}
	}
	for _, c := range om.Creators {
		name := strings.TrimSpace(c.Value)
		if name == "" {
			continue
		}
		role := c.Role
		if role == "" && c.ID != "" {
			role = roles[c.ID]
		}
		// Creators without a role are assumed to be authors.
		if role == "" || role == "aut" {
			info.Authors = append(info.Authors, name)
		}
	}

	for _, l := range om.Languages {
		if v := strings.TrimSpace(l.Value); v != "" {
			info.Language = v
			break
		}
	}
	return info
}
