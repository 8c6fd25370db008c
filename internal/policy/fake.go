package policy

// fakeImage is the Image test double: a fixed hash/Mach-O classification
// with no real file behind it.
type fakeImage struct {
	path      string
	sha256    string
	isMachO   bool
	missingPZ bool

	bundleID      string
	bundleName    string
	bundleVersion string
	bundleShortVer string
}

func (f fakeImage) Path() string             { return f.path }
func (f fakeImage) SHA256() (string, error)  { return f.sha256, nil }
func (f fakeImage) IsMachO() bool            { return f.isMachO }
func (f fakeImage) HasMissingPageZero() bool { return f.missingPZ }

func (f fakeImage) BundleIdentifier() string   { return f.bundleID }
func (f fakeImage) BundleName() string         { return f.bundleName }
func (f fakeImage) BundleVersion() string      { return f.bundleVersion }
func (f fakeImage) BundleShortVersion() string { return f.bundleShortVer }

// fakeLineWriter records every line instead of touching disk.
type fakeLineWriter struct {
	lines []string
}

func (w *fakeLineWriter) WriteLine(line string) error {
	w.lines = append(w.lines, line)
	return nil
}

// fakeParentName always returns a fixed name, never erroring.
type fakeParentName struct{ name string }

func (f fakeParentName) Name(pid int32) (string, error) { return f.name, nil }

// fakeSpawner records invocations instead of exec'ing anything.
type fakeSpawner struct {
	calls []string
}

func (f *fakeSpawner) SpawnSyncSingleEvent(adminToolPath, sha256 string) error {
	f.calls = append(f.calls, sha256)
	return nil
}
