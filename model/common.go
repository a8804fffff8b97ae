package model

type CommonParam struct {
	Operator uint64
}

type CommonParamInterface interface {
	SetOperator(op uint64)
}

func (p *CommonParam) SetOperator(op uint64) {
	p.Operator = op
}

type ContestCommonParam struct {
	CommonParam
	ContestID uint64
}

type ContestCommonParamInterface interface {
	CommonParamInterface
	SetContestID(id uint64)
}

func (p *ContestCommonParam) SetContestID(id uint64) {
	p.ContestID = id
}
