package verification

// verifyScript is the embedded Python helper. It loads the SpeechBrain
// verification model once and answers one JSON request per stdin line.
const verifyScript = `#!/usr/bin/env python3
import argparse
import json
import sys
import warnings

warnings.filterwarnings("ignore")

import torch
from speechbrain.inference.speaker import SpeakerRecognition


def main():
    parser = argparse.ArgumentParser()
    parser.add_argument("--source", required=True)
    parser.add_argument("--savedir", required=True)
    parser.add_argument("--device", default="cpu")
    args = parser.parse_args()

    try:
        model = SpeakerRecognition.from_hparams(
            source=args.source,
            savedir=args.savedir,
            run_opts={"device": args.device},
        )
    except Exception as e:
        print(json.dumps({"error": "load model: " + str(e)}), flush=True)
        sys.exit(1)

    print(json.dumps({"ready": True}), flush=True)

    for line in sys.stdin:
        line = line.strip()
        if not line:
            continue
        try:
            req = json.loads(line)
            with torch.no_grad():
                score, _ = model.verify_files(req["a"], req["b"])
            print(json.dumps({"score": float(score.item())}), flush=True)
        except Exception as e:
            print(json.dumps({"error": str(e)}), flush=True)


if __name__ == "__main__":
    main()
`
