package apiclient

// Notifier presents a single blocking notice to the user. onAck runs
// when the user dismisses it.
type Notifier interface {
	Alert(title, message string, onAck func())
}

// Navigator receives the navigate-to-login signal once a logout
// transition has completed.
type Navigator interface {
	NavigateToLogin()
}

// NopNotifier drops alerts. Used where no UI is attached.
type NopNotifier struct{}

func (NopNotifier) Alert(_, _ string, onAck func()) {
	if onAck != nil {
		onAck()
	}
}

// NopNavigator ignores navigation signals.
type NopNavigator struct{}

func (NopNavigator) NavigateToLogin() {}
