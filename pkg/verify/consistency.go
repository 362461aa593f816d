package verify

import "github.com/certen-io/verikv/pkg/codec"

// Consistency verifies a history-tree consistency proof between an older
// snapshot (i, iRoot) and a newer one (j, jRoot), per spec §4.E
// "Consistency": the standard history-tree consistency walk, right-shifting
// (fn, sn) = (i-1, j-1) while fn is odd, then folding each later proof
// term into both ciRoot and cjRoot while fn is odd or equal to sn, and into
// cjRoot alone otherwise.
func Consistency(i, j uint64, terms [][32]byte, iRoot, jRoot [32]byte) bool {
	if i > j || i == 0 || (i < j && len(terms) == 0) {
		return false
	}
	if i == j {
		return len(terms) == 0 && eq32(iRoot, jRoot)
	}

	fn, sn := i-1, j-1
	for fn%2 == 1 {
		fn >>= 1
		sn >>= 1
	}

	ciRoot := terms[0]
	cjRoot := terms[0]

	for k := 1; k < len(terms); k++ {
		h := terms[k]

		if fn%2 == 1 || fn == sn {
			ciRoot = hashPair(codec.NodePrefix, h, ciRoot)
			cjRoot = hashPair(codec.NodePrefix, h, cjRoot)

			for fn%2 == 0 && fn != 0 {
				fn >>= 1
				sn >>= 1
			}
		} else {
			cjRoot = hashPair(codec.NodePrefix, cjRoot, h)
		}

		fn >>= 1
		sn >>= 1
	}

	return eq32(ciRoot, iRoot) && eq32(cjRoot, jRoot)
}
