package graph

// buildEdges derives skill_group, group and tag edges over nodes. Tags held
// by more than half of the nodes are too common to relate anything and
// produce no edges. Output order is deterministic: rules in the order above,
// groups and tags in the order they first appear in nodes.
func buildEdges(nodes []Node) []Edge {
	threshold := len(nodes) / 2

	// A fragment may repeat a tag; it still carries it once.
	nodeTags := make([][]string, len(nodes))
	tagCounts := map[string]int{}
	for i, n := range nodes {
		nodeTags[i] = distinct(n.Tags)
		for _, t := range nodeTags[i] {
			tagCounts[t]++
		}
	}

	var (
		personas      []int
		groupOrder    []string
		skillsByGroup = map[string][]int{}
		tagOrder      []string
		nodesByTag    = map[string][]int{}
	)

	for i, n := range nodes {
		switch n.Category {
		case "persona":
			personas = append(personas, i)
		case "skill":
			if n.Group != "" {
				if _, ok := skillsByGroup[n.Group]; !ok {
					groupOrder = append(groupOrder, n.Group)
				}
				skillsByGroup[n.Group] = append(skillsByGroup[n.Group], i)
			}
		}

		for _, t := range nodeTags[i] {
			if tagCounts[t] > threshold {
				continue
			}
			if _, ok := nodesByTag[t]; !ok {
				tagOrder = append(tagOrder, t)
			}
			nodesByTag[t] = append(nodesByTag[t], i)
		}
	}

	edges := make([]Edge, 0)

	for _, p := range personas {
		persona := nodes[p]
		for _, group := range persona.SkillGroups {
			for _, s := range skillsByGroup[group] {
				edges = append(edges, Edge{
					From:     persona.ID,
					To:       nodes[s].ID,
					Relation: RelationSkillGroup,
					Label:    group,
				})
			}
		}
	}

	for _, group := range groupOrder {
		edges = appendPairs(edges, nodes, skillsByGroup[group], RelationGroup, group)
	}

	for _, tag := range tagOrder {
		edges = appendPairs(edges, nodes, nodesByTag[tag], RelationTag, tag)
	}

	return edges
}

// appendPairs connects every unordered pair in members once, pairing each
// node only with the nodes after it.
func appendPairs(edges []Edge, nodes []Node, members []int, relation, label string) []Edge {
	for i, a := range members {
		for _, b := range members[i+1:] {
			edges = append(edges, Edge{
				From:     nodes[a].ID,
				To:       nodes[b].ID,
				Relation: relation,
				Label:    label,
			})
		}
	}
	return edges
}

func distinct(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
