package types

// ConstError lets sentinel errors be declared as constants.
type ConstError string

func (err ConstError) Error() string { return string(err) }
