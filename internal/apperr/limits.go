package apperr

// Protocol-level limits shared by request validation and the RPC layer.
const (
	MaxOrderLinesPerRequest = 65535
	MaxNumCartsPerUser      = 5
	MinSecsIntvlReq         = 3
)
