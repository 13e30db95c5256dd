package reconcile

import "nonbiri/pkg/models"

// CloneChapters deep-copies a chapter list so merges never mutate
// slices that earlier readers may still hold.
func CloneChapters(chapters []*models.Chapter) []*models.Chapter {
	if chapters == nil {
		return nil
	}
	cloned := make([]*models.Chapter, len(chapters))
	for i, c := range chapters {
		cloned[i] = CloneChapter(c)
	}
	return cloned
}

// CloneChapter deep-copies a single chapter.
func CloneChapter(c *models.Chapter) *models.Chapter {
	if c == nil {
		return nil
	}
	cloned := *c
	cloned.Pages = append([]string(nil), c.Pages...)
	cloned.Groups = cloneEntities(c.Groups)
	cloned.History = CloneReadState(c.History)
	return &cloned
}

// CloneReadState deep-copies a read state.
func CloneReadState(r *models.ReadState) *models.ReadState {
	if r == nil {
		return nil
	}
	cloned := *r
	cloned.Groups = cloneEntities(r.Groups)
	return &cloned
}

// CloneManga deep-copies a manga and its chapter list.
func CloneManga(m *models.Manga) *models.Manga {
	if m == nil {
		return nil
	}
	cloned := *m
	cloned.Authors = cloneEntities(m.Authors)
	cloned.Artists = cloneEntities(m.Artists)
	cloned.Tags = append([]string(nil), m.Tags...)
	cloned.Relateds = cloneRelateds(m.Relateds)
	cloned.Chapters = CloneChapters(m.Chapters)
	return &cloned
}

// CloneMangas deep-copies a manga list.
func CloneMangas(entries []*models.Manga) []*models.Manga {
	if entries == nil {
		return nil
	}
	cloned := make([]*models.Manga, len(entries))
	for i, m := range entries {
		cloned[i] = CloneManga(m)
	}
	return cloned
}

func cloneEntities(entities []*models.Entity) []*models.Entity {
	if entities == nil {
		return nil
	}
	cloned := make([]*models.Entity, len(entities))
	for i, e := range entities {
		if e != nil {
			c := *e
			cloned[i] = &c
		}
	}
	return cloned
}

func cloneRelateds(relateds []*models.Related) []*models.Related {
	if relateds == nil {
		return nil
	}
	cloned := make([]*models.Related, len(relateds))
	for i, r := range relateds {
		if r != nil {
			c := *r
			cloned[i] = &c
		}
	}
	return cloned
}
