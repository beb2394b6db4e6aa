package config

import "testing"

func TestEnvKVIncludesTaggedFields(t *testing.T) {
	kvs := EnvKV(C{AppName: "gossip", LogLevel: "debug"})
	var sawAppName, sawLogLevel bool
	for _, kv := range kvs {
		switch kv.Key {
		case "GOSSIP_APP_NAME":
			sawAppName = true
			if kv.Value != "gossip" {
				t.Fatalf("expected gossip, got %q", kv.Value)
			}
		case "GOSSIP_LOG_LEVEL":
			sawLogLevel = true
		}
	}
	if !sawAppName || !sawLogLevel {
		t.Fatal("expected both tagged fields present")
	}
}

func TestKVSliceSortsByKey(t *testing.T) {
	kvs := KVSlice{{"B", "2"}, {"A", "1"}}
	if kvs.Less(0, 1) {
		t.Fatal("expected B > A unsorted")
	}
	kvs.Swap(0, 1)
	if kvs[0].Key != "A" {
		t.Fatalf("expected swap to put A first, got %q", kvs[0].Key)
	}
}

func TestApplyDBDirOverridesOnlyWhenSet(t *testing.T) {
	cfg := &C{DataDir: "/default"}
	cfg.ApplyDBDir("")
	if cfg.DataDir != "/default" {
		t.Fatalf("expected unchanged default, got %q", cfg.DataDir)
	}
	cfg.ApplyDBDir("/custom")
	if cfg.DataDir != "/custom" {
		t.Fatalf("expected override, got %q", cfg.DataDir)
	}
}
