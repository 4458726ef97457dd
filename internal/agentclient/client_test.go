package agentclient

import "testing"

func TestInitAndActivate(t *testing.T) {
	c, code := Init("")
	if code != 0 {
		t.Fatalf("Init() returned code %d, want 0", code)
	}
	defer c.Close()

	if code := c.ActivateAgent(0); code != 0 {
		t.Fatalf("ActivateAgent(0) returned %d, want 0", code)
	}
	if n := c.ActiveCount(); n != 1 {
		t.Fatalf("ActiveCount() = %d, want 1", n)
	}
}

func TestWriteReadBufferRoundTrip(t *testing.T) {
	c, _ := Init("")
	defer c.Close()
	c.ActivateAgent(0)

	if code := c.WriteBuffer(0, 0, []byte("hello")); code != 0 {
		t.Fatalf("WriteBuffer returned %d, want 0", code)
	}

	dst := make([]byte, 1024)
	retries := c.ReadBuffer(0, 0, dst)
	if retries < 0 {
		t.Fatalf("ReadBuffer returned error code %d", retries)
	}
	if string(dst[:5]) != "hello" {
		t.Fatalf("ReadBuffer got %q, want \"hello\"", dst[:5])
	}
}

func TestBoundsViolationsReturnDistinguishedCode(t *testing.T) {
	c, _ := Init("")
	defer c.Close()

	if code := c.WriteBuffer(99, 0, []byte("x")); code != -2 {
		t.Fatalf("out-of-range agent should return -2, got %d", code)
	}
	if code := c.WriteBuffer(0, 99, []byte("x")); code != -2 {
		t.Fatalf("out-of-range buffer kind should return -2, got %d", code)
	}
}

func TestPushPopInterrupt(t *testing.T) {
	c, _ := Init("")
	defer c.Close()

	if code := c.PushInterrupt(1, 2, 0, 1, []byte("hi")); code != 0 {
		t.Fatalf("PushInterrupt returned %d, want 0", code)
	}

	var out PoppedInterrupt
	if code := c.PopInterrupt(&out); code != 0 {
		t.Fatalf("PopInterrupt returned %d, want 0", code)
	}
	if out.SourceAgent != 1 || out.TargetAgent != 2 {
		t.Fatalf("unexpected popped fields: %+v", out)
	}

	if code := c.PopInterrupt(&out); code != 1 {
		t.Fatalf("PopInterrupt on empty ring should return 1, got %d", code)
	}
}

func TestNilClientMethodsReturnInvalidHandle(t *testing.T) {
	var c *Client
	if code := c.WriteBuffer(0, 0, nil); code != -1 {
		t.Fatalf("nil client WriteBuffer should return -1, got %d", code)
	}
	if code := c.ActiveCount(); code != -1 {
		t.Fatalf("nil client ActiveCount should return -1, got %d", code)
	}
}
