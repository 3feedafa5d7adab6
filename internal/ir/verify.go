package ir

import "fmt"

// Verify checks structural invariants of a lowered function:
//   - every block in the list is terminated
//   - predecessor lists agree with the terminator edges
//   - branch argument counts match target block parameter counts
//   - every block is reachable from the entry (dead-block pruning left
//     nothing behind)
func Verify(f *Function) error {
	if len(f.Blocks) == 0 {
		return fmt.Errorf("function %s has no blocks", f.Name)
	}

	inList := make(map[*Block]bool, len(f.Blocks))
	for _, b := range f.Blocks {
		inList[b] = true
	}

	preds := make(map[*Block][]*Block)
	for _, b := range f.Blocks {
		if b.Term == nil {
			return fmt.Errorf("function %s: block %s is not terminated", f.Name, b.Label)
		}
		for _, succ := range b.Term.Targets() {
			if !inList[succ] {
				return fmt.Errorf("function %s: block %s branches to removed block %s", f.Name, b.Label, succ.Label)
			}
			preds[succ] = append(preds[succ], b)
		}
		if br, ok := b.Term.(*Br); ok {
			if len(br.Args) != len(br.Target.Params) {
				return fmt.Errorf("function %s: branch %s -> %s carries %d args, target takes %d",
					f.Name, b.Label, br.Target.Label, len(br.Args), len(br.Target.Params))
			}
		}
	}

	for _, b := range f.Blocks {
		if len(preds[b]) != len(b.preds) {
			return fmt.Errorf("function %s: block %s records %d predecessors, terminators imply %d",
				f.Name, b.Label, len(b.preds), len(preds[b]))
		}
		// Same block can reach b on both edges of a cond_br, so compare as
		// multisets.
		counts := make(map[*Block]int, len(b.preds))
		for _, p := range preds[b] {
			counts[p]++
		}
		for _, p := range b.preds {
			counts[p]--
		}
		for p, c := range counts {
			if c != 0 {
				return fmt.Errorf("function %s: block %s predecessors disagree with terminator edges at %s",
					f.Name, b.Label, p.Label)
			}
		}
	}

	reachable := make(map[*Block]bool)
	traverse(f.Entry(), reachable)
	for _, b := range f.Blocks {
		if !reachable[b] {
			return fmt.Errorf("function %s: block %s is unreachable from entry", f.Name, b.Label)
		}
	}
	return nil
}

func traverse(b *Block, visited map[*Block]bool) {
	if b == nil || visited[b] {
		return
	}
	visited[b] = true
	if b.Term == nil {
		return
	}
	for _, succ := range b.Term.Targets() {
		traverse(succ, visited)
	}
}
