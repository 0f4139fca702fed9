package blockproducer

import "github.com/celer-network/go-zkrollup/types"

type EventListener interface {
	OnBlockSealed(block *types.IncompleteBlock)
}

type SelectiveListener struct {
	OnBlockSealedCb func(block *types.IncompleteBlock)
}

func (l *SelectiveListener) OnBlockSealed(block *types.IncompleteBlock) {
	if l.OnBlockSealedCb != nil {
		l.OnBlockSealedCb(block)
	}
}
