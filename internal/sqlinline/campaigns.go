package sqlinline

const QInsertCampaign = `--sql bed2b27c-c851-4b6c-aece-d203281fe029
insert into campaigns(creator_id, owner_address, creator_name, title, description, target_amount, deadline, image_url, documents, videos, chain_index)
values ($1::uuid, $2::text, $3::text, $4::text, $5::text, $6::numeric, $7::timestamptz, $8::text, $9::text[], $10::text[], $11::bigint)
returning id, creator_id::text, owner_address, creator_name, title, description, target_amount::text, deadline,
  amount_collected::text, image_url, documents, videos, chain_index, is_verified, verified_by, verified_at, created_at, updated_at;
`

const QSelectCampaignByID = `--sql 102f1ff0-cede-47d9-b187-c26c8d5bd2e4
select id, creator_id::text, owner_address, creator_name, title, description, target_amount::text, deadline,
  amount_collected::text, image_url, documents, videos, chain_index, is_verified, verified_by, verified_at, created_at, updated_at
from campaigns
where id = $1::bigint;
`

const QListCampaigns = `--sql d24062f6-8907-4043-be96-9b08da918638
select id, creator_id::text, owner_address, creator_name, title, description, target_amount::text, deadline,
  amount_collected::text, image_url, documents, videos, chain_index, is_verified, verified_by, verified_at, created_at, updated_at
from campaigns
where ($1::text = '' or title ilike '%' || $1::text || '%' or description ilike '%' || $1::text || '%')
  and ($2::text = '' or creator_id = nullif($2::text, '')::uuid)
  and (
    $4::text in ('', 'all')
    or ($4::text = 'verified' and is_verified)
    or ($4::text = 'ongoing' and deadline > $5::timestamptz)
    or ($4::text = 'completed' and deadline <= $5::timestamptz)
  )
order by created_at desc
limit $3::int;
`

const QMarkCampaignVerified = `--sql f1b8aae0-15d7-4808-bac9-be7da472e75d
update campaigns
set is_verified = true,
    verified_by = coalesce(verified_by, $2::text),
    verified_at = coalesce(verified_at, now()),
    updated_at = now()
where id = $1::bigint
returning id, creator_id::text, owner_address, creator_name, title, description, target_amount::text, deadline,
  amount_collected::text, image_url, documents, videos, chain_index, is_verified, verified_by, verified_at, created_at, updated_at;
`
