package domain

type EmojiAsset struct {
	Name       string
	Data       []byte
	ChannelRef int64
}

// AssetError reports a single asset that could not be registered.
type AssetError struct {
	Name string
	Err  error
}

func (e AssetError) Error() string {
	return e.Name + ": " + e.Err.Error()
}

func (e AssetError) Unwrap() error { return e.Err }
