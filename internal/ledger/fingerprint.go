package ledger

import (
	"crypto/sha256"
	"encoding/binary"
	"hash"

	"github.com/ethereum/go-ethereum/common"
)

// Fingerprint 计算提案内容指纹：对 (title, description, budget, milestones)
// 做长度前缀的确定性编码后取 sha256。编码与字段顺序固定，同样内容必得同样指纹。
func Fingerprint(title, description string, budget int64, milestones []Milestone) common.Hash {
	h := sha256.New()
	writeString(h, title)
	writeString(h, description)
	writeInt64(h, budget)
	writeInt64(h, int64(len(milestones)))
	for _, m := range milestones {
		writeString(h, m.Description)
		writeInt64(h, m.BudgetAllocation)
		writeString(h, m.RequiredProof)
	}
	return common.BytesToHash(h.Sum(nil))
}

func writeString(h hash.Hash, s string) {
	writeInt64(h, int64(len(s)))
	h.Write([]byte(s))
}

func writeInt64(h hash.Hash, v int64) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(v))
	h.Write(buf[:])
}
